package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"

	"talent-match-go/internal/extractor"
	"talent-match-go/internal/logger"
	"talent-match-go/internal/storage"
	"talent-match-go/internal/storage/models"
	"talent-match-go/internal/types"
)

// JobHandler 岗位管理处理器
type JobHandler struct {
	storage          *storage.Storage
	featureExtractor *extractor.Extractor
}

// NewJobHandler 创建岗位处理器
func NewJobHandler(storage *storage.Storage, featureExtractor *extractor.Extractor) *JobHandler {
	return &JobHandler{
		storage:          storage,
		featureExtractor: featureExtractor,
	}
}

// CreateJobRequest 发布岗位请求
type CreateJobRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	SalaryRange     string `json:"salary_range"`
	ExperienceLevel string `json:"experience_level"`
	JobType         string `json:"job_type"`
}

// CreateJobResponse 发布岗位响应
type CreateJobResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// JobView 岗位列表视图
type JobView struct {
	JobID           string `json:"job_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	SalaryRange     string `json:"salary_range"`
	ExperienceLevel string `json:"experience_level"`
	JobType         string `json:"job_type"`
	Status          string `json:"status"`
}

// ApplicationView 投递列表视图
type ApplicationView struct {
	ApplicantName string                  `json:"applicant_name"`
	Email         string                  `json:"email"`
	MatchingScore float64                 `json:"matching_score"`
	LocationMatch bool                    `json:"location_match"`
	Resume        *types.ExtractedProfile `json:"resume"`
}

// HandleCreateJob 发布一个新岗位
// 发布时预计算归一化描述并写入缓存，投递路径不再重复归一化岗位侧
func (h *JobHandler) HandleCreateJob(ctx context.Context, req *CreateJobRequest) (*CreateJobResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, NewValidationError("title", "不能为空")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, NewValidationError("description", "不能为空")
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, NewValidationError("location", "不能为空")
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成岗位ID失败: %w", err)
	}
	jobID := uuidV7.String()

	cleaned, err := h.featureExtractor.Normalize(req.Description)
	if err != nil {
		return nil, fmt.Errorf("归一化岗位描述失败: %w", err)
	}

	job := &models.Job{
		JobID:              jobID,
		Title:              req.Title,
		Description:        req.Description,
		CleanedDescription: cleaned,
		Location:           req.Location,
		SalaryRange:        req.SalaryRange,
		ExperienceLevel:    req.ExperienceLevel,
		JobType:            req.JobType,
		Status:             "ACTIVE",
	}

	if h.storage.MySQL == nil {
		return nil, fmt.Errorf("MySQL未初始化, 无法创建岗位")
	}
	if err := h.storage.MySQL.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("创建岗位失败: %w", err)
	}

	// 预热缓存，失败不影响岗位创建
	if h.storage.Redis != nil {
		if err := h.storage.Redis.CacheJobDescription(ctx, jobID, job.Description); err != nil {
			logger.Warn().Err(err).Str("job_id", jobID).Msg("预热岗位描述缓存失败")
		}
		if err := h.storage.Redis.CacheJobLocation(ctx, jobID, job.Location); err != nil {
			logger.Warn().Err(err).Str("job_id", jobID).Msg("预热岗位地点缓存失败")
		}
	}

	logger.Info().Str("job_id", jobID).Str("title", req.Title).Msg("岗位已发布")

	return &CreateJobResponse{
		JobID:   jobID,
		Message: "Job posted successfully!",
		Status:  "success",
	}, nil
}

// HandleListJobs 列出全部岗位
func (h *JobHandler) HandleListJobs(ctx context.Context) ([]JobView, error) {
	if h.storage.MySQL == nil {
		return nil, fmt.Errorf("MySQL未初始化, 无法查询岗位")
	}

	jobs, err := h.storage.MySQL.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]JobView, len(jobs))
	for i, job := range jobs {
		views[i] = JobView{
			JobID:           job.JobID,
			Title:           job.Title,
			Description:     job.Description,
			Location:        job.Location,
			SalaryRange:     job.SalaryRange,
			ExperienceLevel: job.ExperienceLevel,
			JobType:         job.JobType,
			Status:          job.Status,
		}
	}
	return views, nil
}

// HandleListApplications 列出某个岗位的全部投递，按匹配分倒序
func (h *JobHandler) HandleListApplications(ctx context.Context, jobID string) ([]ApplicationView, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, NewValidationError("job_id", "不能为空")
	}
	if h.storage.MySQL == nil {
		return nil, fmt.Errorf("MySQL未初始化, 无法查询投递")
	}

	// 确认岗位存在，不存在映射为404
	if _, err := h.storage.MySQL.GetJobByID(ctx, jobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}

	applications, err := h.storage.MySQL.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	views := make([]ApplicationView, len(applications))
	for i, application := range applications {
		view := ApplicationView{
			ApplicantName: application.ApplicantName,
			Email:         application.Email,
			MatchingScore: application.MatchingScore,
			LocationMatch: application.LocationMatch,
		}
		if len(application.ResumeProfile) > 0 {
			var profile types.ExtractedProfile
			if err := json.Unmarshal(application.ResumeProfile, &profile); err != nil {
				logger.Warn().
					Err(err).
					Str("application_id", application.ApplicationID).
					Msg("解析投递画像快照失败")
			} else {
				view.Resume = &profile
			}
		}
		views[i] = view
	}
	return views, nil
}
