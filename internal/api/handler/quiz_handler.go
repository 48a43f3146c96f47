package handler

import (
	"context"

	"talent-match-go/internal/quiz"
	"talent-match-go/internal/types"
)

// QuizHandler 测验会话处理器，薄封装 quiz.Manager
type QuizHandler struct {
	manager *quiz.Manager
}

// NewQuizHandler 创建测验处理器
func NewQuizHandler(manager *quiz.Manager) *QuizHandler {
	return &QuizHandler{manager: manager}
}

// StartQuizRequest 开始测验请求
type StartQuizRequest struct {
	Field  string `json:"field"`
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
}

// StartQuizResponse 开始测验响应
type StartQuizResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// NextQuestionRequest 拉取下一题请求
type NextQuestionRequest struct {
	SessionID  string `json:"session_id"`
	Difficulty string `json:"difficulty"`
}

// AnswerRequest 提交答案请求
type AnswerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// HandleStartQuiz 开始一个新的测验会话
func (h *QuizHandler) HandleStartQuiz(ctx context.Context, req *StartQuizRequest) (*StartQuizResponse, error) {
	sessionID, message, err := h.manager.StartSession(ctx, req.Field, req.JobID, req.UserID)
	if err != nil {
		return nil, err
	}
	return &StartQuizResponse{
		Message:   message,
		SessionID: sessionID,
		Status:    "success",
	}, nil
}

// HandleNextQuestion 为会话生成并返回下一题
func (h *QuizHandler) HandleNextQuestion(ctx context.Context, req *NextQuestionRequest) (*types.QuestionView, error) {
	return h.manager.NextQuestion(ctx, req.SessionID, req.Difficulty)
}

// HandleAnswer 提交当前题目的答案
// 未到最后一题返回进度，最后一题返回最终结果并结束会话
func (h *QuizHandler) HandleAnswer(ctx context.Context, req *AnswerRequest) (*types.QuizProgress, *types.QuizResult, error) {
	return h.manager.SubmitAnswer(ctx, req.SessionID, req.Answer)
}

// HandleResults 查询进行中会话的实时成绩
func (h *QuizHandler) HandleResults(ctx context.Context, sessionID string) (*types.QuizResultsView, error) {
	return h.manager.Results(ctx, sessionID)
}
