package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Job 岗位信息表
// Description保留原文用于打分，CleanedDescription是发布时归一化后的词元袋
type Job struct {
	JobID              string    `gorm:"type:char(36);primaryKey"`
	Title              string    `gorm:"type:varchar(255);not null"`
	Description        string    `gorm:"type:text;not null"`
	CleanedDescription string    `gorm:"type:text"`
	Location           string    `gorm:"type:varchar(255);not null"`
	SalaryRange        string    `gorm:"type:varchar(100)"`
	ExperienceLevel    string    `gorm:"type:varchar(100)"`
	JobType            string    `gorm:"type:varchar(50)"`
	Status             string    `gorm:"type:varchar(50);default:'ACTIVE';index:idx_jobs_status"`
	CreatedAt          time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// Application 投递记录表
// ResumeProfile是提取出的结构化画像快照，投递时写入后不再修改
type Application struct {
	ApplicationID   string         `gorm:"type:char(36);primaryKey"`
	ApplicantName   string         `gorm:"type:varchar(255);not null"`
	Email           string         `gorm:"type:varchar(255);not null"`
	JobID           string         `gorm:"type:char(36);not null;index:idx_applications_job_id"`
	ResumeProfile   datatypes.JSON `gorm:"type:json"`
	MatchingScore   float64        `gorm:"type:double;not null"`
	LocationMatch   bool           `gorm:"not null"`
	ResumeObjectKey string         `gorm:"type:varchar(1024)"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Job *Job `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Application) TableName() string {
	return "applications"
}

// QuizResult 测验终态记录表
// Questions与UserAnswers以JSON保存完整的出题与作答快照
type QuizResult struct {
	ResultID    uint64         `gorm:"primaryKey;autoIncrement"`
	UserID      string         `gorm:"type:varchar(255);not null;index:idx_quiz_results_user_id"`
	JobID       string         `gorm:"type:char(36);index:idx_quiz_results_job_id"`
	Field       string         `gorm:"type:varchar(255)"`
	Questions   datatypes.JSON `gorm:"type:json"`
	UserAnswers datatypes.JSON `gorm:"type:json"`
	Score       int            `gorm:"not null"`
	Passed      bool           `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// ToJSON 把任意值序列化为GORM的JSON列类型
func ToJSON(value interface{}) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("序列化为JSON列失败: %w", err)
	}
	return datatypes.JSON(data), nil
}
