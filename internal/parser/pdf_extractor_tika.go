package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// TikaExtractor 基于Apache Tika服务器的文档文本抽取器
type TikaExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时
	Client *http.Client
	// 是否额外请求精简元数据
	extractMinimalMetadata bool
	logger                 *log.Logger
}

// TikaOption 配置选项函数
type TikaOption func(*TikaExtractor)

// WithMinimalMetadata 配置是否提取精简的关键元数据
func WithMinimalMetadata(extract bool) TikaOption {
	return func(e *TikaExtractor) {
		e.extractMinimalMetadata = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(logger *log.Logger) TikaOption {
	return func(e *TikaExtractor) {
		e.logger = logger
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaExtractor) {
		e.Client.Timeout = timeout
	}
}

// 确保TikaExtractor实现了DocumentExtractor接口
var _ DocumentExtractor = (*TikaExtractor)(nil)

// NewTikaExtractor 创建Tika抽取器
func NewTikaExtractor(serverURL string, options ...TikaOption) *TikaExtractor {
	extractor := &TikaExtractor{
		ServerURL: serverURL,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		extractMinimalMetadata: true,
		logger:                 log.New(os.Stderr, "[TikaExtractor] ", log.LstdFlags),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

// ExtractFromFile 从本地文件提取文本
func (e *TikaExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("读取文件失败 %s: %w", filePath, err)
	}
	return e.ExtractTextFromBytes(ctx, data, filePath)
}

// ExtractTextFromReader 从io.Reader提取文本
func (e *TikaExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("读取文档内容失败: %w", err)
	}
	return e.ExtractTextFromBytes(ctx, data, uri)
}

// ExtractTextFromBytes 从字节数组提取文本内容
// 通过PUT /tika以纯文本模式请求Tika服务器；非200状态视为解析失败
func (e *TikaExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()

	metadata := map[string]interface{}{
		"extraction_time":  time.Now().Format(time.RFC3339),
		"source_file_path": uri,
	}

	url := fmt.Sprintf("%s/tika", e.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", metadata, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain")
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", metadata, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", metadata, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", metadata, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	text := string(textBytes)

	metadata["text_length"] = len(text)
	metadata["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	if e.extractMinimalMetadata {
		if raw, err := e.extractMetadata(ctx, data, uri); err == nil {
			for k, v := range raw {
				if isImportantMetadata(k) {
					metadata[k] = v
				}
			}
		} else {
			e.logger.Printf("元数据提取失败: %v, 继续使用基本元数据", err)
		}
	}

	e.logger.Printf("文本提取完成: %d 个字符 (用时 %.2f秒)", len(text), time.Since(startTime).Seconds())
	return text, metadata, nil
}

// extractMetadata 通过PUT /meta获取文档元数据
func (e *TikaExtractor) extractMetadata(ctx context.Context, data []byte, uri string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/meta", e.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建元数据请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/json")
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求元数据失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika元数据接口返回状态码: %d", resp.StatusCode)
	}

	var metadata map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	return metadata, nil
}

// isImportantMetadata 精简模式下保留的元数据字段
func isImportantMetadata(key string) bool {
	importantKeys := map[string]bool{
		"pdf:PDFVersion":  true,
		"xmpTPg:NPages":   true,
		"dcterms:created": true,
		"language":        true,
		"dc:title":        true,
		"Content-Type":    true,
	}
	return importantKeys[key]
}
