package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("email", "不能为空")
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "不能为空")

	assert.True(t, IsValidationError(err))
	assert.True(t, IsValidationError(fmt.Errorf("包装一层: %w", err)))
	assert.False(t, IsValidationError(errors.New("别的错误")))
	assert.False(t, IsValidationError(ErrJobNotFound))
}
