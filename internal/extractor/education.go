package extractor

import (
	"regexp"
	"strings"

	"talent-match-go/internal/types"
)

// 教育经历的行内匹配模式
// 三个模式各自独立，逐行匹配；跨行不合并是有意的精度/召回取舍
var (
	degreePattern      = regexp.MustCompile(`(?i)\b(Bachelor|Master|PhD|Diploma|Certificate|B\.?S\.?|M\.?S\.?|Ph\.?D\.?)\b`)
	institutionPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(University|College|Institute|Academy)\b`)
	yearPattern        = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	experiencePattern = regexp.MustCompile(`(?i)\b(experience|work history|employment)\b`)
	locationPattern   = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

// ExtractEducation 按物理行提取教育经历
// 每行独立匹配学位关键词、院校名（大写词序列+University等后缀）和1900-2099年份，
// 任一命中即为该行生成一个条目，未命中的字段留空
// 不同行的学位和院校不会合并成同一条目
func ExtractEducation(text string) []types.EducationEntry {
	var entries []types.EducationEntry
	for _, line := range strings.Split(text, "\n") {
		degree := degreePattern.FindString(line)
		institution := institutionPattern.FindString(line)
		year := yearPattern.FindString(line)

		if degree == "" && institution == "" && year == "" {
			continue
		}
		entries = append(entries, types.EducationEntry{
			Degree:      degree,
			Institution: institution,
			Year:        year,
		})
	}
	return entries
}

// ExtractExperience 返回包含经历关键词的原始行，保持原有顺序
// 关键词：experience / work history / employment（大小写不敏感）
func ExtractExperience(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if experiencePattern.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExtractLocations 提取文本中所有极大的大写词序列，按首次出现顺序去重
// 这是一个启发式的专有名词探测器，会把人名、机构名也捕获进来；
// 过度捕获是已知的取舍，由调用方的子串匹配消化
func ExtractLocations(text string) []string {
	matches := locationPattern.FindAllString(text, -1)

	seen := make(map[string]bool, len(matches))
	locations := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			locations = append(locations, m)
		}
	}
	return locations
}
