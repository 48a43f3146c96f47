package parser

import (
	"context"
	"io"
)

// DocumentExtractor 文档文本抽取接口
// 上传的简历二进制经由它变成纯文本；非法文档必须返回错误而不是空文本
type DocumentExtractor interface {
	// ExtractFromFile 从本地文件提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error)

	// ExtractTextFromReader 从io.Reader提取文本和元数据
	// uri 为资源标识符，仅用于日志和元数据
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error)

	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error)
}
