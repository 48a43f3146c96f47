package extractor

import (
	"fmt"

	"talent-match-go/internal/types"
)

// Extractor 特征提取器，聚合归一化器与技能词表
// 构造一次后不可变，可被并发请求共享；每次提取的结果归请求所有
type Extractor struct {
	normalizer *Normalizer
	vocabulary *SkillsVocabulary
}

// NewExtractor 创建特征提取器
func NewExtractor(normalizer *Normalizer, vocabulary *SkillsVocabulary) (*Extractor, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("归一化器不能为空")
	}
	if vocabulary == nil {
		return nil, fmt.Errorf("技能词表不能为空")
	}
	return &Extractor{
		normalizer: normalizer,
		vocabulary: vocabulary,
	}, nil
}

// Normalize 归一化文本为词元袋字符串
func (e *Extractor) Normalize(text string) (string, error) {
	return e.normalizer.Normalize(text)
}

// ExtractSkills 提取命中词表的技能
func (e *Extractor) ExtractSkills(text string) []string {
	return e.vocabulary.ExtractSkills(text)
}

// ExtractProfile 从（已脱敏的）简历文本提取结构化画像
// 纯函数式：同一输入必然得到同一画像
func (e *Extractor) ExtractProfile(text string) *types.ExtractedProfile {
	return &types.ExtractedProfile{
		Skills:     e.vocabulary.ExtractSkills(text),
		Education:  ExtractEducation(text),
		Experience: ExtractExperience(text),
		Locations:  ExtractLocations(text),
	}
}
