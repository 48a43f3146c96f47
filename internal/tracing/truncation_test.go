package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"空字符串", "", ""},
		{"单字符", "a", "*"},
		{"两字符", "ab", "a*"},
		{"四字符", "abcd", "a**d"},
		{"邮箱保留前后两位", "alice@example.com", "al*************om"},
		{"中文姓名", "张三", "张*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPII(tt.value))
		})
	}
}

func TestTruncateString(t *testing.T) {
	t.Run("短字符串原样返回", func(t *testing.T) {
		assert.Equal(t, "hello", TruncateString("hello", 10))
	})

	t.Run("超长字符串首尾保留", func(t *testing.T) {
		long := strings.Repeat("a", 50) + strings.Repeat("b", 50)
		got := TruncateString(long, 21)
		assert.Len(t, []rune(got), 21)
		assert.Contains(t, got, "...")
		assert.True(t, strings.HasPrefix(got, "aaa"))
		assert.True(t, strings.HasSuffix(got, "bbb"))
	})

	t.Run("极短上限直接截断", func(t *testing.T) {
		assert.Equal(t, "ab", TruncateString("abcdef", 2))
	})
}

func TestSafeAttributeValue(t *testing.T) {
	t.Run("敏感属性名触发掩码", func(t *testing.T) {
		assert.Equal(t, "al*************om", SafeAttributeValue("applicant_email", "alice@example.com", DefaultMaxLength))
		assert.Equal(t, "Al*ce", SafeAttributeValue("applicant_name", "Alice", DefaultMaxLength))
	})

	t.Run("普通属性名只做截断", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		got := SafeAttributeValue("job_description", long, DefaultMaxLength)
		assert.LessOrEqual(t, len([]rune(got)), DefaultMaxLength)
		assert.Contains(t, got, "...")
	})

	t.Run("普通短值原样返回", func(t *testing.T) {
		assert.Equal(t, "golang", SafeAttributeValue("quiz_topic", "golang", DefaultMaxLength))
	})
}

func TestSafeWrappersRespectLimits(t *testing.T) {
	long := strings.Repeat("s", 1000)

	assert.LessOrEqual(t, len([]rune(SafeSQL(long))), MaxSQLLength)
	assert.LessOrEqual(t, len([]rune(SafeRedisKey(long))), MaxRedisLength)
	assert.LessOrEqual(t, len([]rune(SafeResumeContent(long))), MaxResumeLength)
	assert.LessOrEqual(t, len([]rune(SafePrompt(long))), MaxPromptLength)

	assert.Equal(t, "jd_cache:job-1", SafeRedisKey("jd_cache:job-1"))
}
