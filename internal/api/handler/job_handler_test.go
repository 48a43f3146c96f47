package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCreateJobValidation(t *testing.T) {
	h := NewJobHandler(nil, nil)

	tests := []struct {
		name string
		req  *CreateJobRequest
	}{
		{"缺少标题", &CreateJobRequest{Description: "desc", Location: "Berlin"}},
		{"缺少描述", &CreateJobRequest{Title: "Backend Engineer", Location: "Berlin"}},
		{"缺少地点", &CreateJobRequest{Title: "Backend Engineer", Description: "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.HandleCreateJob(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, IsValidationError(err), "期望参数校验错误, 实际: %v", err)
		})
	}
}

func TestHandleListApplicationsRequiresJobID(t *testing.T) {
	h := NewJobHandler(nil, nil)

	views, err := h.HandleListApplications(context.Background(), "  ")
	require.Error(t, err)
	assert.Nil(t, views)
	assert.True(t, IsValidationError(err))
}
