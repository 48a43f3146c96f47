package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"talent-match-go/internal/config"
	"talent-match-go/internal/logger"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// AliyunEmbedder 通过OpenAI兼容的embeddings接口生成文本向量
// 实现 cloudwego/eino 的 embedding.Embedder 接口
type AliyunEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// 编译期检查接口实现
var _ embedding.Embedder = (*AliyunEmbedder)(nil)

// NewAliyunEmbedder 创建Embedding客户端
func NewAliyunEmbedder(cfg config.EmbeddingConfig) (*AliyunEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API密钥不能为空")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}

	return &AliyunEmbedder{
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
		baseURL:    baseURL,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout, 30*time.Second),
		},
		log: logger.With("aliyun_embedder"),
	}, nil
}

// GetDimensions 返回配置的向量维度
func (a *AliyunEmbedder) GetDimensions() int {
	return a.dimensions
}

// embeddingRequest OpenAI兼容的请求体
type embeddingRequest struct {
	Input      interface{} `json:"input"` // string 或 []string
	Model      string      `json:"model"`
	Dimensions int         `json:"dimensions,omitempty"`
}

// embeddingResponse OpenAI兼容的响应体
type embeddingResponse struct {
	Object string           `json:"object"`
	Data   []embeddingEntry `json:"data"`
	Model  string           `json:"model"`
	Usage  embeddingUsage   `json:"usage"`
	Error  *embeddingError  `json:"error,omitempty"`
}

type embeddingEntry struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// embeddingError API在200响应内返回的错误信息
type embeddingError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// EmbedStrings 将一批文本转换为向量
// 任何失败都显式返回错误，调用方不得把失败当作零分处理
func (a *AliyunEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	options := &embedding.Options{}
	embedding.GetCommonOptions(options, opts...)

	effectiveModel := a.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var input interface{}
	if len(texts) == 1 {
		input = texts[0]
	} else {
		input = texts
	}

	reqBody := embeddingRequest{
		Input: input,
		Model: effectiveModel,
	}
	if a.dimensions > 0 {
		reqBody.Dimensions = a.dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化embedding请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用embedding服务失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取embedding响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError embeddingError
		if json.Unmarshal(body, &apiError) == nil && apiError.Message != "" {
			return nil, fmt.Errorf("embedding API调用失败, 状态码: %d, 类型: %s, 错误: %s", resp.StatusCode, apiError.Type, apiError.Message)
		}
		return nil, fmt.Errorf("embedding API调用失败, 状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析embedding响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("embedding API返回错误: 类型=%s, 消息=%s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding响应数量不匹配: 期望%d, 实际%d", len(texts), len(parsed.Data))
	}

	vectors := make([][]float64, len(parsed.Data))
	for i, entry := range parsed.Data {
		vectors[i] = entry.Embedding
	}

	a.log.Debug().
		Int("texts", len(texts)).
		Int("prompt_tokens", parsed.Usage.PromptTokens).
		Str("model", effectiveModel).
		Msg("embedding完成")

	return vectors, nil
}
