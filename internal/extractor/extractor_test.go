package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVocabulary() *SkillsVocabulary {
	return NewSkillsVocabulary([]string{
		"python", "golang", "java", "docker", "kubernetes",
		"machine learning", "data science", "natural language processing",
	})
}

// TestExtractSkillsUnigram 单词技能的精确匹配
func TestExtractSkillsUnigram(t *testing.T) {
	vocab := newTestVocabulary()

	skills := vocab.ExtractSkills("Experienced Python Developer with Docker knowledge")
	assert.Equal(t, []string{"docker", "python"}, skills, "应命中python和docker且按字典序返回")
}

// TestExtractSkillsNgram 2词和3词窗口的精确匹配
func TestExtractSkillsNgram(t *testing.T) {
	vocab := newTestVocabulary()

	skills := vocab.ExtractSkills("Built Machine Learning pipelines and Natural Language Processing models")
	assert.Contains(t, skills, "machine learning")
	assert.Contains(t, skills, "natural language processing")
}

// TestExtractSkillsOnlyVocabularyEntries 结果只来自词表
func TestExtractSkillsOnlyVocabularyEntries(t *testing.T) {
	vocab := newTestVocabulary()

	skills := vocab.ExtractSkills("Expert in COBOL, Fortran and Python")
	for _, s := range skills {
		assert.True(t, vocab.Contains(s), "技能 %q 不在词表中", s)
	}
	assert.Equal(t, []string{"python"}, skills)
}

// TestExtractSkillsNoFalseNegatives 文本中逐字出现的词表项必须被找到
func TestExtractSkillsNoFalseNegatives(t *testing.T) {
	vocab := newTestVocabulary()

	text := "python golang java docker kubernetes machine learning data science"
	skills := vocab.ExtractSkills(text)
	for _, want := range []string{"python", "golang", "java", "docker", "kubernetes", "machine learning", "data science"} {
		assert.Contains(t, skills, want, "词表项 %q 在文本中逐字出现但未被找到", want)
	}
}

// TestExtractEducationLineLocal 每行独立匹配，跨行不合并
func TestExtractEducationLineLocal(t *testing.T) {
	text := "Bachelor of Engineering\nStanford University\nGraduated 2018"
	entries := ExtractEducation(text)

	require.Len(t, entries, 3, "三行各自命中，应得到三个独立条目")
	assert.Equal(t, "Bachelor", entries[0].Degree)
	assert.Empty(t, entries[0].Institution, "学位行没有院校，不能从别的行合并")
	assert.Equal(t, "Stanford University", entries[1].Institution)
	assert.Empty(t, entries[1].Year)
	assert.Equal(t, "2018", entries[2].Year)
}

// TestExtractEducationSingleLine 同一行的多个字段进入同一条目
func TestExtractEducationSingleLine(t *testing.T) {
	entries := ExtractEducation("M.S. in CS, Tsinghua University, 2021")
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Degree)
	assert.Equal(t, "Tsinghua University", entries[0].Institution)
	assert.Equal(t, "2021", entries[0].Year)
}

// TestExtractEducationNoEmptyEntries 无命中的行不产生条目
func TestExtractEducationNoEmptyEntries(t *testing.T) {
	entries := ExtractEducation("just some plain text\nanother plain line")
	assert.Empty(t, entries)
	for _, e := range entries {
		assert.False(t, e.IsEmpty())
	}
}

// TestExtractEducationYearRange 年份限制在1900-2099
func TestExtractEducationYearRange(t *testing.T) {
	assert.Empty(t, ExtractEducation("established in 1850"), "1850不在年份范围内")
	entries := ExtractEducation("class of 1999")
	require.Len(t, entries, 1)
	assert.Equal(t, "1999", entries[0].Year)
}

// TestExtractExperience 按关键词过滤行并保持顺序
func TestExtractExperience(t *testing.T) {
	text := strings.Join([]string{
		"Work History:",
		"Software engineer at Acme",
		"5 years of EXPERIENCE in backend",
		"Employment: contractor",
		"Education: none",
	}, "\n")

	lines := ExtractExperience(text)
	require.Len(t, lines, 3)
	assert.Equal(t, "Work History:", lines[0])
	assert.Equal(t, "5 years of EXPERIENCE in backend", lines[1])
	assert.Equal(t, "Employment: contractor", lines[2])
}

// TestExtractLocations 极大大写词序列，按首次出现顺序去重
func TestExtractLocations(t *testing.T) {
	locations := ExtractLocations("Located in Austin, Texas. Previously in New York City and Austin again.")

	assert.Contains(t, locations, "Austin")
	assert.Contains(t, locations, "Texas")
	assert.Contains(t, locations, "New York City", "连续大写词应作为一个极大序列")

	// 去重且保持首次出现顺序
	seen := make(map[string]int)
	for i, l := range locations {
		_, dup := seen[l]
		assert.False(t, dup, "地点 %q 重复出现", l)
		seen[l] = i
	}
	assert.Less(t, seen["Austin"], seen["Texas"])
}

// TestNormalize 归一化输出只含长度>2的小写词元，不含停用词
func TestNormalize(t *testing.T) {
	normalizer, err := NewNormalizer()
	require.NoError(t, err, "加载词形还原词典失败")

	out, err := normalizer.Normalize("The developers are building scalable services with databases and running tests.")
	require.NoError(t, err)

	tokens := strings.Fields(out)
	assert.NotEmpty(t, tokens)
	for _, tok := range tokens {
		assert.Equal(t, strings.ToLower(tok), tok, "词元必须是小写: %q", tok)
		assert.Greater(t, len(tok), 2, "词元长度必须大于2: %q", tok)
		assert.False(t, stopWords[tok], "输出不能包含停用词: %q", tok)
		assert.False(t, strings.HasPrefix(tok, "http"), "URL前缀词元应被丢弃: %q", tok)
	}
}

// TestNormalizeDropsURLs url词元被丢弃
func TestNormalizeDropsURLs(t *testing.T) {
	normalizer, err := NewNormalizer()
	require.NoError(t, err)

	out, err := normalizer.Normalize("see https://example.com/profile for details about engineering work")
	require.NoError(t, err)
	assert.NotContains(t, out, "http")
}

// TestNormalizeIdempotent 归一化输出再归一化一次应保持不变
// 词形还原后的词元已是基本形，二次处理不能再改写它们
func TestNormalizeIdempotent(t *testing.T) {
	normalizer, err := NewNormalizer()
	require.NoError(t, err)

	inputs := []string{
		"python developer experience database design",
		"Senior engineers built distributed systems and deployed containers in production clusters.",
		"Bachelor of Engineering from Stanford University with machine learning background",
	}
	for _, text := range inputs {
		once, err := normalizer.Normalize(text)
		require.NoError(t, err)
		twice, err := normalizer.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "二次归一化改变了输出, 输入: %q", text)
	}
}

// TestNormalizeEmpty 空文本返回空串
func TestNormalizeEmpty(t *testing.T) {
	normalizer, err := NewNormalizer()
	require.NoError(t, err)

	out, err := normalizer.Normalize("   \n\t ")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

// TestExtractProfileDeterministic 同一简历文本两次提取结果完全一致
func TestExtractProfileDeterministic(t *testing.T) {
	normalizer, err := NewNormalizer()
	require.NoError(t, err)
	ext, err := NewExtractor(normalizer, newTestVocabulary())
	require.NoError(t, err)

	text := "Experienced Python Developer\nMaster of Science, MIT, 2020\nLocated in Austin, Texas"
	first := ext.ExtractProfile(text)
	second := ext.ExtractProfile(text)
	assert.Equal(t, first, second, "特征提取必须是确定性的")
}

// TestExtractProfileScenario 综合场景：单行简历摘要
func TestExtractProfileScenario(t *testing.T) {
	normalizer, err := NewNormalizer()
	require.NoError(t, err)
	ext, err := NewExtractor(normalizer, newTestVocabulary())
	require.NoError(t, err)

	text := "Experienced Python Developer, Master of Science, MIT, 2020, Located in Austin, Texas"
	profile := ext.ExtractProfile(text)

	assert.Equal(t, []string{"python"}, profile.Skills)

	require.Len(t, profile.Education, 1, "单行只产生一个教育条目")
	assert.Equal(t, "2020", profile.Education[0].Year)
	assert.Empty(t, profile.Education[0].Institution, "MIT为全大写，不符合院校模式")

	assert.Contains(t, profile.Locations, "Austin")
	assert.Contains(t, profile.Locations, "Texas")

	// "Experienced"是带后缀的变体，不命中整词experience
	assert.Empty(t, profile.Experience)
}
