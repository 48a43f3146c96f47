package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// EinoPDFExtractor 使用eino的PDF解析组件做本地文本抽取
// 不依赖外部Tika服务，适合单机部署
type EinoPDFExtractor struct {
	parser *pdf.PDFParser
	logger *log.Logger
}

// EinoPDFOption 配置选项函数
type EinoPDFOption func(*EinoPDFExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(logger *log.Logger) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		e.logger = logger
	}
}

// 确保EinoPDFExtractor实现了DocumentExtractor接口
var _ DocumentExtractor = (*EinoPDFExtractor)(nil)

// NewEinoPDFExtractor 初始化eino PDF文本抽取器
// 配置为不按页分割，整份文档返回连续文本
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建eino PDF解析器失败: %w", err)
	}

	extractor := &EinoPDFExtractor{
		parser: p,
		logger: log.New(os.Stderr, "[EinoPDF] ", log.LstdFlags),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// ExtractFromFile 从PDF文件提取文本
func (e *EinoPDFExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("打开PDF文件失败 %s: %w", filePath, err)
	}
	defer file.Close()

	return e.ExtractTextFromReader(ctx, file, filePath)
}

// ExtractTextFromBytes 从字节数组提取文本
func (e *EinoPDFExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	return e.ExtractTextFromReader(ctx, bytes.NewReader(data), uri)
}

// ExtractTextFromReader 从io.Reader提取文本
// 解析失败或无结果都返回显式错误
func (e *EinoPDFExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()

	extraMeta := map[string]interface{}{
		"source_file_path": uri,
		"extraction_time":  time.Now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(extraMeta),
	)

	duration := time.Since(startTime)
	if err != nil {
		return "", extraMeta, fmt.Errorf("eino PDF解析失败 (URI %s): %w", uri, err)
	}
	if len(docs) == 0 {
		return "", extraMeta, fmt.Errorf("eino PDF解析无结果 (URI %s)", uri)
	}

	// 合并所有文档内容（ToPages=false时通常只有一个）
	var fullContent string
	for i, doc := range docs {
		fullContent += doc.Content
		if i < len(docs)-1 {
			fullContent += "\n\n"
		}
	}

	var metadata map[string]interface{}
	if docs[0].MetaData != nil {
		metadata = docs[0].MetaData
	} else {
		metadata = make(map[string]interface{})
	}
	for k, v := range extraMeta {
		metadata[k] = v
	}
	metadata["processing_duration_ms"] = duration.Milliseconds()
	metadata["text_length"] = len(fullContent)

	e.logger.Printf("PDF提取完成: %d 个字符 (用时 %.2f秒)", len(fullContent), duration.Seconds())
	return fullContent, metadata, nil
}
