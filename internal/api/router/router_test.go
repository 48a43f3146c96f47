package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"

	"talent-match-go/internal/api/handler"
	"talent-match-go/internal/quiz"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"参数校验错误", handler.NewValidationError("email", "不能为空"), consts.StatusBadRequest},
		{"包装后的参数校验错误", fmt.Errorf("处理投递失败: %w", handler.NewValidationError("name", "不能为空")), consts.StatusBadRequest},
		{"缺少用户ID", quiz.ErrUserIDRequired, consts.StatusBadRequest},
		{"缺少答案", quiz.ErrAnswerRequired, consts.StatusBadRequest},
		{"尚未开始答题", quiz.ErrNoQuizInProgress, consts.StatusBadRequest},
		{"没有待答题目", quiz.ErrNoMoreQuestions, consts.StatusBadRequest},
		{"岗位不存在", handler.ErrJobNotFound, consts.StatusNotFound},
		{"会话不存在", quiz.ErrSessionNotFound, consts.StatusNotFound},
		{"包装后的会话不存在", fmt.Errorf("查询成绩失败: %w", quiz.ErrSessionNotFound), consts.StatusNotFound},
		{"其他错误", errors.New("数据库抖动"), consts.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}
