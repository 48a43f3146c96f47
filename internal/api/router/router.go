package router

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"go.opentelemetry.io/otel/trace"

	"talent-match-go/internal/api/handler"
	"talent-match-go/internal/quiz"
	"talent-match-go/internal/tracing"
)

// RegisterRoutes 注册 API 路由
// adminAPIKey 为空时岗位发布接口不做鉴权，便于本地开发
func RegisterRoutes(h *server.Hertz,
	applyHandler *handler.ApplyHandler,
	jobHandler *handler.JobHandler,
	quizHandler *handler.QuizHandler,
	adminAPIKey string) {

	api := h.Group("/api/v1")

	api.POST("/apply", func(c context.Context, ctx *app.RequestContext) {
		// 获取上传的简历文件
		fileHeader, err := ctx.FormFile("resume")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "简历文件未找到", "status": "error"})
			return
		}

		name := ctx.PostForm("name")
		email := ctx.PostForm("email")
		jobID := ctx.PostForm("job_id")

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败", "status": "error"})
			return
		}
		defer file.Close()

		resp, err := applyHandler.HandleApply(c, name, email, jobID, file, fileHeader.Filename)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 岗位发布与投递查看是管理端操作，配置了API Key时走keyauth
	// 岗位列表对求职方公开
	var adminAuth app.HandlerFunc
	if adminAPIKey != "" {
		adminAuth = keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
				return key == adminAPIKey, nil
			}),
			keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
				ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "无效的API Key", "status": "error"})
				ctx.Abort()
			}),
		)
	}

	jobs := api.Group("/jobs")
	jobs.POST("", withAuth(adminAuth, createJobEndpoint(jobHandler))...)

	jobs.GET("", func(c context.Context, ctx *app.RequestContext) {
		views, err := jobHandler.HandleListJobs(c)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"jobs": views, "status": "success"})
	})

	jobs.GET("/:job_id/applications", withAuth(adminAuth, func(c context.Context, ctx *app.RequestContext) {
		views, err := jobHandler.HandleListApplications(c, ctx.Param("job_id"))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"applications": views, "status": "success"})
	})...)

	quizGroup := api.Group("/quiz")

	quizGroup.POST("/start", func(c context.Context, ctx *app.RequestContext) {
		var req handler.StartQuizRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败", "status": "error"})
			return
		}
		resp, err := quizHandler.HandleStartQuiz(c, &req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	quizGroup.POST("/next", func(c context.Context, ctx *app.RequestContext) {
		var req handler.NextQuestionRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败", "status": "error"})
			return
		}
		view, err := quizHandler.HandleNextQuestion(c, &req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		if view.Finished {
			ctx.JSON(consts.StatusOK, utils.H{"message": "Quiz completed!", "finished": true})
			return
		}
		ctx.JSON(consts.StatusOK, view)
	})

	quizGroup.POST("/answer", func(c context.Context, ctx *app.RequestContext) {
		var req handler.AnswerRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败", "status": "error"})
			return
		}
		progress, result, err := quizHandler.HandleAnswer(c, &req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		if result != nil {
			ctx.JSON(consts.StatusOK, result)
			return
		}
		ctx.JSON(consts.StatusOK, progress)
	})

	quizGroup.GET("/results", func(c context.Context, ctx *app.RequestContext) {
		view, err := quizHandler.HandleResults(c, ctx.Query("session_id"))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, view)
	})

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// withAuth 把可选的鉴权中间件拼到处理函数前面
func withAuth(auth app.HandlerFunc, endpoint app.HandlerFunc) []app.HandlerFunc {
	if auth == nil {
		return []app.HandlerFunc{endpoint}
	}
	return []app.HandlerFunc{auth, endpoint}
}

func createJobEndpoint(jobHandler *handler.JobHandler) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		var req handler.CreateJobRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败", "status": "error"})
			return
		}
		resp, err := jobHandler.HandleCreateJob(c, &req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusCreated, resp)
	}
}

// writeError 把业务层错误映射到HTTP状态码，并记录到当前请求的span上
func writeError(c context.Context, ctx *app.RequestContext, err error) {
	status := statusForError(err)
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
	ctx.JSON(status, utils.H{"error": err.Error(), "status": "error"})
}

func statusForError(err error) int {
	switch {
	case handler.IsValidationError(err),
		errors.Is(err, quiz.ErrUserIDRequired),
		errors.Is(err, quiz.ErrAnswerRequired),
		errors.Is(err, quiz.ErrNoQuizInProgress),
		errors.Is(err, quiz.ErrNoMoreQuestions):
		return consts.StatusBadRequest
	case errors.Is(err, handler.ErrJobNotFound),
		errors.Is(err, quiz.ErrSessionNotFound):
		return consts.StatusNotFound
	default:
		return consts.StatusInternalServerError
	}
}
