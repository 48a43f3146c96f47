package handler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 参数校验在触碰存储与模型之前完成，零值处理器足够覆盖这些路径
func TestHandleApplyValidation(t *testing.T) {
	h := NewApplyHandler(nil, nil, nil, nil)
	resume := strings.NewReader("fake pdf bytes")

	tests := []struct {
		name          string
		applicantName string
		email         string
		jobID         string
	}{
		{"缺少姓名", "", "alice@example.com", "job-1"},
		{"姓名全空白", "   ", "alice@example.com", "job-1"},
		{"缺少邮箱", "Alice", "", "job-1"},
		{"缺少岗位ID", "Alice", "alice@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.HandleApply(context.Background(), tt.applicantName, tt.email, tt.jobID, resume, "resume.pdf")
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, IsValidationError(err), "期望参数校验错误, 实际: %v", err)
		})
	}
}

func TestHandleApplyMissingResume(t *testing.T) {
	h := NewApplyHandler(nil, nil, nil, nil)

	resp, err := h.HandleApply(context.Background(), "Alice", "alice@example.com", "job-1", nil, "")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "resume")
}
