package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"talent-match-go/internal/config"
	"talent-match-go/internal/logger"
	"talent-match-go/internal/types"
)

// OpenAIGenerator 走OpenAI兼容chat接口的出题后端
// 本地LM Studio与云端OpenAI兼容服务都用这一个实现
type OpenAIGenerator struct {
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      zerolog.Logger
}

// chatCompletionRequest OpenAI兼容chat接口的请求体
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse OpenAI兼容chat接口的响应体，只取需要的字段
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIGenerator 创建OpenAI兼容后端的出题器
func NewOpenAIGenerator(cfg config.QuizGeneratorConfig) (*OpenAIGenerator, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("出题服务api_url未配置")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("出题服务model未配置")
	}

	timeout := 60 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("出题服务timeout配置无效: %w", err)
		}
		timeout = parsed
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.5
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	return &OpenAIGenerator{
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		client:      &http.Client{Timeout: timeout},
		logger:      logger.With("quiz_generator_openai"),
	}, nil
}

// Generate 调用chat接口生成一道选择题
// 模型输出经过严格校验，任何残缺输出都按错误返回
func (g *OpenAIGenerator) Generate(ctx context.Context, topic string, difficulty string, existing []types.QuizQuestion) (*types.QuizQuestion, error) {
	prompt := buildQuestionPrompt(topic, difficulty, existing)

	reqBody := chatCompletionRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化出题请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建出题请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	startTime := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用出题服务失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取出题响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("出题服务返回状态码%d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("解析出题响应失败: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("出题服务返回错误: %s (%s)", chatResp.Error.Message, chatResp.Error.Type)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("出题服务没有返回choices")
	}

	question, err := parseQuestion(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	g.logger.Debug().
		Str("topic", topic).
		Str("difficulty", difficulty).
		Int("existing_questions", len(existing)).
		Dur("duration", time.Since(startTime)).
		Msg("生成题目成功")

	return question, nil
}
