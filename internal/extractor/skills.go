package extractor

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// SkillsVocabulary 预加载的技能词表，全部小写，进程生命周期内只读
// 支持单词技能("python")和多词技能("machine learning")
type SkillsVocabulary struct {
	entries map[string]bool
}

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

// NewSkillsVocabulary 从给定的技能词列表构造词表，条目统一小写
func NewSkillsVocabulary(skills []string) *SkillsVocabulary {
	entries := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			entries[s] = true
		}
	}
	return &SkillsVocabulary{entries: entries}
}

// LoadSkillsVocabulary 从CSV文件加载技能词表
// 文件格式：首行为表头(Skill)，之后每行一个技能词/词组
func LoadSkillsVocabulary(path string) (*SkillsVocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开技能词表文件失败: %w", err)
	}
	defer file.Close()

	var skills []string
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// 跳过表头行
		if first {
			first = false
			if strings.EqualFold(line, "skill") {
				continue
			}
		}
		skills = append(skills, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取技能词表文件失败: %w", err)
	}

	return NewSkillsVocabulary(skills), nil
}

// Size 返回词表条目数
func (v *SkillsVocabulary) Size() int {
	return len(v.entries)
}

// Contains 判断词或词组是否在词表中（大小写不敏感）
func (v *SkillsVocabulary) Contains(term string) bool {
	return v.entries[strings.ToLower(term)]
}

// ExtractSkills 从文本中提取命中词表的技能
// 分词为纯字母单词后，对所有unigram以及连续的2、3词窗口做精确匹配
// 返回去重后按字典序排序的结果，保证确定性
func (v *SkillsVocabulary) ExtractSkills(text string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)

	found := make(map[string]bool)
	for _, tok := range tokens {
		if v.entries[tok] {
			found[tok] = true
		}
	}

	// 连续2词和3词窗口
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			ngram := strings.Join(tokens[i:i+n], " ")
			if v.entries[ngram] {
				found[ngram] = true
			}
		}
	}

	skills := make([]string, 0, len(found))
	for s := range found {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}
