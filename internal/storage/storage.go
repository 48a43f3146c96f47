package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"talent-match-go/internal/config"
	"talent-match-go/internal/logger"
	"talent-match-go/internal/quiz"
	"talent-match-go/internal/storage/models"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 对象存储：简历原件归档
	MinIO *MinIO

	// 消息队列：领域事件
	RabbitMQ *RabbitMQ

	// 关系型数据库：岗位/投递/测验结果
	MySQL *MySQL

	// 键值存储：岗位描述与地点缓存
	Redis *Redis
}

// NewStorage 创建存储管理器
// 单个组件初始化失败记为警告，全部失败才返回错误
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var initErrors []string

	var minioLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		minioLogger = log.New(os.Stderr, "[MinIOStorage] ", log.LstdFlags|log.Lshortfile)
	} else {
		minioLogger = log.New(io.Discard, "", 0)
	}

	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(&cfg.MinIO, minioLogger)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if cfg.MySQL.Host != "" {
		storage.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化MySQL失败")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}

	if storage.MinIO == nil && storage.RabbitMQ == nil && storage.MySQL == nil && storage.Redis == nil {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	if len(initErrors) > 0 {
		logger.Warn().Str("components", strings.Join(initErrors, "; ")).Msg("部分存储组件初始化失败")
	}

	return storage, nil
}

// SaveQuizResult 实现quiz.ResultStore：测验终态记录落MySQL并发布完成事件
func (s *Storage) SaveQuizResult(ctx context.Context, record *quiz.ResultRecord) error {
	if s.MySQL == nil {
		return fmt.Errorf("MySQL未初始化, 无法保存测验结果")
	}

	questionsJSON, err := models.ToJSON(record.Questions)
	if err != nil {
		return err
	}
	answersJSON, err := models.ToJSON(record.Answers)
	if err != nil {
		return err
	}

	result := &models.QuizResult{
		UserID:      record.UserID,
		JobID:       record.JobID,
		Field:       record.Field,
		Questions:   questionsJSON,
		UserAnswers: answersJSON,
		Score:       record.Score,
		Passed:      record.Passed,
	}

	if err := s.MySQL.CreateQuizResult(ctx, result); err != nil {
		return fmt.Errorf("保存测验结果失败: %w", err)
	}

	// 事件发布失败不影响落库结果
	if s.RabbitMQ != nil {
		event := &QuizCompletedEvent{
			UserID: record.UserID,
			JobID:  record.JobID,
			Field:  record.Field,
			Score:  record.Score,
			Passed: record.Passed,
		}
		if err := s.RabbitMQ.PublishQuizCompleted(ctx, event); err != nil {
			logger.Warn().Err(err).Str("user_id", record.UserID).Msg("发布测验完成事件失败")
		}
	}

	return nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}

	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
	// MinIO客户端不需要显式Close
}
