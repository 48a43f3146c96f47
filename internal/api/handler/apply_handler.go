package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"talent-match-go/internal/extractor"
	"talent-match-go/internal/logger"
	"talent-match-go/internal/parser"
	"talent-match-go/internal/scorer"
	"talent-match-go/internal/storage"
	"talent-match-go/internal/storage/models"
	"talent-match-go/internal/tracing"
	"talent-match-go/internal/types"
)

var applyTracer = otel.Tracer("talent-match-go/handler/apply")

// ApplyHandler 投递处理器，负责协调一次投递的完整流水线：
// 归档原件 -> 抽取文本 -> 脱敏 -> 画像提取 -> 归一化 -> 打分 -> 落库 -> 发事件
type ApplyHandler struct {
	storage          *storage.Storage
	documentExtract  parser.DocumentExtractor
	featureExtractor *extractor.Extractor
	matchScorer      *scorer.MatchScorer
}

// NewApplyHandler 创建投递处理器
func NewApplyHandler(
	storage *storage.Storage,
	documentExtract parser.DocumentExtractor,
	featureExtractor *extractor.Extractor,
	matchScorer *scorer.MatchScorer,
) *ApplyHandler {
	return &ApplyHandler{
		storage:          storage,
		documentExtract:  documentExtract,
		featureExtractor: featureExtractor,
		matchScorer:      matchScorer,
	}
}

// ApplyResponse 投递响应
type ApplyResponse struct {
	Message       string  `json:"message"`
	MatchingScore float64 `json:"matching_score"`
	Status        string  `json:"status"`
}

// HandleApply 处理一次投递
// 岗位不存在返回ErrJobNotFound；文本抽取、打分等上游失败是本次提交的硬错误
func (h *ApplyHandler) HandleApply(ctx context.Context, applicantName, email, jobID string,
	reader io.Reader, filename string) (*ApplyResponse, error) {

	if strings.TrimSpace(applicantName) == "" {
		return nil, NewValidationError("name", "不能为空")
	}
	if strings.TrimSpace(email) == "" {
		return nil, NewValidationError("email", "不能为空")
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, NewValidationError("job_id", "不能为空")
	}
	if reader == nil {
		return nil, NewValidationError("resume", "缺少简历文件")
	}

	// 姓名邮箱属于PII，进span前先掩码
	ctx, span := applyTracer.Start(ctx, "apply.pipeline",
		trace.WithAttributes(
			attribute.String("apply.job_id", jobID),
			attribute.String("apply.applicant_name", tracing.SafeAttributeValue("applicant_name", applicantName, tracing.DefaultMaxLength)),
			attribute.String("apply.email", tracing.SafeAttributeValue("email", email, tracing.DefaultMaxLength)),
		),
	)
	defer span.End()

	// reader只能读一次，先读出来供MinIO归档与文本抽取共用
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成投递ID失败: %w", err)
	}
	applicationID := uuidV7.String()

	// 先确认岗位存在再做重活
	jobDescription, jobLocation, err := h.lookupJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// 原件归档失败只记警告，不阻断投递
	var resumeObjectKey string
	if h.storage.MinIO != nil {
		resumeObjectKey, err = h.storage.MinIO.UploadResume(ctx, applicationID, filename, bytes.NewReader(fileBytes), int64(len(fileBytes)))
		if err != nil {
			logger.Warn().
				Err(err).
				Str("application_id", applicationID).
				Str("filename", filename).
				Msg("归档简历原件失败")
			resumeObjectKey = ""
		}
	}

	rawText, _, err := h.documentExtract.ExtractTextFromBytes(ctx, fileBytes, filename)
	if err != nil {
		return nil, fmt.Errorf("提取简历文本失败: %w", err)
	}

	// 脱敏后的文本是画像提取与打分的唯一输入，原文不再参与后续流程
	redacted := extractor.Redact(rawText)
	profile := h.featureExtractor.ExtractProfile(redacted)

	normalized, err := h.featureExtractor.Normalize(redacted)
	if err != nil {
		return nil, fmt.Errorf("归一化简历文本失败: %w", err)
	}

	score, err := h.matchScorer.Score(ctx, jobDescription, normalized, profile.Skills)
	if err != nil {
		return nil, fmt.Errorf("计算匹配分失败: %w", err)
	}

	locationMatch := scorer.LocationMatch(profile.Locations, jobLocation)
	finalScore := scorer.ApplyLocationBonus(score, locationMatch)

	if err := h.saveApplication(ctx, applicationID, applicantName, email, jobID, profile, finalScore, locationMatch, resumeObjectKey); err != nil {
		return nil, err
	}

	h.publishScoredEvent(ctx, applicationID, applicantName, email, jobID, finalScore, locationMatch)

	logger.Info().
		Str("application_id", applicationID).
		Str("job_id", jobID).
		Float64("matching_score", finalScore).
		Bool("location_match", locationMatch).
		Int("skills", len(profile.Skills)).
		Msg("投递处理完成")

	return &ApplyResponse{
		Message:       "Application submitted successfully!",
		MatchingScore: finalScore,
		Status:        "success",
	}, nil
}

// lookupJob 读取岗位描述与地点，缓存未命中时回源MySQL并回填缓存
func (h *ApplyHandler) lookupJob(ctx context.Context, jobID string) (description string, location string, err error) {
	if h.storage.Redis != nil {
		cachedDesc, errDesc := h.storage.Redis.GetCachedJobDescription(ctx, jobID)
		cachedLoc, errLoc := h.storage.Redis.GetCachedJobLocation(ctx, jobID)
		if errDesc == nil && errLoc == nil {
			return cachedDesc, cachedLoc, nil
		}
		if errDesc != nil && !errors.Is(errDesc, storage.ErrNotFound) {
			logger.Warn().Err(errDesc).Str("job_id", jobID).Msg("读取岗位描述缓存失败, 回源数据库")
		}
	}

	if h.storage.MySQL == nil {
		return "", "", fmt.Errorf("MySQL未初始化, 无法查询岗位")
	}

	job, err := h.storage.MySQL.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrJobNotFound
		}
		return "", "", fmt.Errorf("查询岗位失败: %w", err)
	}

	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheJobDescription(ctx, jobID, job.Description); err != nil {
			logger.Warn().Err(err).Str("job_id", jobID).Msg("回填岗位描述缓存失败")
		}
		if err := h.storage.Redis.CacheJobLocation(ctx, jobID, job.Location); err != nil {
			logger.Warn().Err(err).Str("job_id", jobID).Msg("回填岗位地点缓存失败")
		}
	}

	return job.Description, job.Location, nil
}

func (h *ApplyHandler) saveApplication(ctx context.Context, applicationID, applicantName, email, jobID string,
	profile *types.ExtractedProfile, score float64, locationMatch bool, resumeObjectKey string) error {

	if h.storage.MySQL == nil {
		return fmt.Errorf("MySQL未初始化, 无法保存投递")
	}

	profileJSON, err := models.ToJSON(profile)
	if err != nil {
		return err
	}

	application := &models.Application{
		ApplicationID:   applicationID,
		ApplicantName:   applicantName,
		Email:           email,
		JobID:           jobID,
		ResumeProfile:   profileJSON,
		MatchingScore:   score,
		LocationMatch:   locationMatch,
		ResumeObjectKey: resumeObjectKey,
	}

	if err := h.storage.MySQL.CreateApplication(ctx, application); err != nil {
		return fmt.Errorf("保存投递记录失败: %w", err)
	}
	return nil
}

// publishScoredEvent 发布打分完成事件，失败只记警告
func (h *ApplyHandler) publishScoredEvent(ctx context.Context, applicationID, applicantName, email, jobID string,
	score float64, locationMatch bool) {

	if h.storage.RabbitMQ == nil {
		return
	}

	event := &storage.ApplicationScoredEvent{
		ApplicationID: applicationID,
		JobID:         jobID,
		ApplicantName: applicantName,
		Email:         email,
		MatchingScore: score,
		LocationMatch: locationMatch,
	}
	if err := h.storage.RabbitMQ.PublishApplicationScored(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("application_id", applicationID).
			Msg("发布投递打分事件失败")
	}
}
