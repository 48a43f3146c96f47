package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"talent-match-go/internal/config"
	"talent-match-go/internal/types"
)

// NewGenerator 按配置创建出题后端
func NewGenerator(ctx context.Context, cfg config.QuizGeneratorConfig) (QuestionGenerator, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAIGenerator(cfg)
	case "gemini":
		return NewGeminiGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("未知的出题后端: %q", cfg.Backend)
	}
}

// QuestionGenerator 出题后端的统一接口
// existing传入本会话已生成的题目，后端必须避免出重复题
// 实现方只负责生成与校验单道题，会话状态由Manager管理
type QuestionGenerator interface {
	Generate(ctx context.Context, topic string, difficulty string, existing []types.QuizQuestion) (*types.QuizQuestion, error)
}

// validOptionKeys 选择题合法的选项键，恰好四个
var validOptionKeys = []string{"A", "B", "C", "D"}

// buildQuestionPrompt 构造出题提示词
// 已出过的题目文本拼接进提示词，要求模型避免重复
func buildQuestionPrompt(topic string, difficulty string, existing []types.QuizQuestion) string {
	questionTexts := make([]string, 0, len(existing))
	for _, q := range existing {
		questionTexts = append(questionTexts, q.Question)
	}
	existingText := strings.Join(questionTexts, " ")

	return fmt.Sprintf(`
You are a technical quiz generator.

Generate ONE multiple-choice question on the topic of %q with %s difficulty.

Do not generate duplicate questions. Avoid these questions: %q

Format as JSON:
{
  "question": "...",
  "options": {
    "A": "...",
    "B": "...",
    "C": "...",
    "D": "..."
  },
  "answer": "B" or "C" or "D" or "A"
}
Only return valid JSON. No explanations.
`, topic, difficulty, existingText)
}

// jsonBlockPattern 匹配 ```json ... ``` 代码块
var jsonBlockPattern = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// extractJSON 从模型输出中提取JSON文本
// 优先取markdown代码块里的内容，没有代码块时按花括号配对回退
func extractJSON(text string) string {
	matches := jsonBlockPattern.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}

// parseQuestion 解析并严格校验模型返回的题目
// 校验失败时整道题作废，由调用方决定是否重试，绝不把残缺题目入会话
func parseQuestion(raw string) (*types.QuizQuestion, error) {
	jsonText := extractJSON(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("模型输出中没有找到JSON: %s", raw)
	}

	var q types.QuizQuestion
	if err := json.Unmarshal([]byte(jsonText), &q); err != nil {
		return nil, fmt.Errorf("题目JSON解析失败: %w", err)
	}

	if strings.TrimSpace(q.Question) == "" {
		return nil, fmt.Errorf("题目缺少question字段")
	}
	if len(q.Options) != len(validOptionKeys) {
		return nil, fmt.Errorf("题目选项数量为%d, 期望%d个", len(q.Options), len(validOptionKeys))
	}
	for _, key := range validOptionKeys {
		if strings.TrimSpace(q.Options[key]) == "" {
			return nil, fmt.Errorf("题目缺少选项%s", key)
		}
	}

	q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
	if _, ok := q.Options[q.Answer]; !ok {
		return nil, fmt.Errorf("题目answer字段无效: %q", q.Answer)
	}

	return &q, nil
}
