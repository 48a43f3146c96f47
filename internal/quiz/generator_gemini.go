package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"talent-match-go/internal/config"
	"talent-match-go/internal/logger"
	"talent-match-go/internal/types"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator 走Google GenAI的出题后端
// 要求模型直接返回application/json，省掉markdown代码块的剥离
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      zerolog.Logger
}

// NewGeminiGenerator 创建Gemini后端的出题器
func NewGeminiGenerator(ctx context.Context, cfg config.QuizGeneratorConfig) (*GeminiGenerator, error) {
	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini_api_key未配置")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建genai客户端失败: %w", err)
	}

	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		model = defaultGeminiModel
	}

	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = 0.5
	}
	maxTokens := int32(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 300
	}

	return &GeminiGenerator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.With("quiz_generator_gemini"),
	}, nil
}

// Generate 调用Gemini生成一道选择题
func (g *GeminiGenerator) Generate(ctx context.Context, topic string, difficulty string, existing []types.QuizQuestion) (*types.QuizQuestion, error) {
	prompt := buildQuestionPrompt(topic, difficulty, existing)

	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("调用gemini出题失败: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, fmt.Errorf("gemini返回了空响应")
	}

	question, err := parseQuestion(output)
	if err != nil {
		return nil, err
	}

	g.logger.Debug().
		Str("topic", topic).
		Str("difficulty", difficulty).
		Int("existing_questions", len(existing)).
		Msg("生成题目成功")

	return question, nil
}
