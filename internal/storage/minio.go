package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"talent-match-go/internal/config"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadResume 归档一份原始简历，返回对象键
	UploadResume(ctx context.Context, applicationID, filename string, reader io.Reader, fileSize int64) (string, error)

	// GetResume 下载简历原件
	GetResume(ctx context.Context, objectName string) ([]byte, error)

	// GetPresignedURL 获取限时下载URL
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)

	// DeleteResume 删除简历原件
	DeleteResume(ctx context.Context, objectName string) error
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能，归档投递的简历原件
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	resumesBucket string
	logger        *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	bucket := cfg.ResumesBucket
	if bucket == "" {
		bucket = "resumes"
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		resumesBucket: bucket,
		logger:        logger,
	}

	if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保简历存储桶 %s 存在失败: %w", bucket, err)
	}

	if cfg.ResumeExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), bucket, "expire-resumes", cfg.ResumeExpireDays); err != nil {
			m.logger.Printf("[MinIO] Warning: failed to set up lifecycle rule: %v", err)
		}
	}

	m.logger.Printf("[MinIO] Client initialized for endpoint: %s, bucket: %s", cfg.Endpoint, bucket)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] Bucket %s created.", bucketName)
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lifecycleConfig := lifecycle.NewConfiguration()
	lifecycleConfig.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}

	if err := m.client.SetBucketLifecycle(ctx, bucketName, lifecycleConfig); err != nil {
		return err
	}
	m.logger.Printf("[MinIO] Lifecycle rule set for bucket %s: ExpiryDays=%d", bucketName, expiryDays)
	return nil
}

// UploadResume 归档一份原始简历，返回对象键
// 对象键形如 {application_id}/original{ext}，同一投递的重传会覆盖
func (m *MinIO) UploadResume(ctx context.Context, applicationID, filename string, reader io.Reader, fileSize int64) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	objectName := fmt.Sprintf("%s/original%s", applicationID, ext)

	contentType := "application/octet-stream"
	if ext == ".pdf" {
		contentType = "application/pdf"
	}

	_, err := m.client.PutObject(ctx, m.resumesBucket, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传简历到MinIO失败: %w", err)
	}

	return objectName, nil
}

// GetResume 下载简历原件
func (m *MinIO) GetResume(ctx context.Context, objectName string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, m.resumesBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("从MinIO获取简历失败: %w", err)
	}
	defer object.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, object); err != nil {
		return nil, fmt.Errorf("读取简历内容失败: %w", err)
	}
	return buf.Bytes(), nil
}

// GetPresignedURL 获取限时下载URL
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := m.client.PresignedGetObject(ctx, m.resumesBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteResume 删除简历原件
func (m *MinIO) DeleteResume(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.resumesBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除简历失败: %w", err)
	}
	return nil
}
