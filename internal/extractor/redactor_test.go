package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRedactEmail 验证各种形态的邮箱都被替换为占位符
func TestRedactEmail(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"普通邮箱", "联系方式: john.doe@example.com 谢谢"},
		{"带数字的邮箱", "mail: dev2024@company.io"},
		{"子域名邮箱", "hr@mail.corp.example.org"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Redact(tc.in)
			assert.NotContains(t, out, "@", "脱敏后不应残留邮箱")
			assert.Contains(t, out, "EMAIL_REMOVED")
		})
	}
}

// TestRedactPhone 验证电话样式的数字串被替换
func TestRedactPhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"横线分隔", "Call me at 555-123-4567 anytime"},
		{"带国家码", "Phone: +1 (212) 555 0173"},
		{"连续手机号", "手机 13812345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Redact(tc.in)
			assert.Contains(t, out, "PHONE_REMOVED", "电话应被脱敏: %q -> %q", tc.in, out)
		})
	}
}

// TestRedactKeepsYears 孤立的4位年份不是电话，必须保留给教育经历提取
func TestRedactKeepsYears(t *testing.T) {
	in := "Master of Science, MIT, 2020"
	out := Redact(in)
	assert.Contains(t, out, "2020", "年份不应被当作电话脱敏")
}

// TestRedactNoMatchIsNoop 没有匹配项时原样返回
func TestRedactNoMatchIsNoop(t *testing.T) {
	in := "Experienced Python developer based in Austin"
	assert.Equal(t, in, Redact(in))
}

// TestRedactDeterministic 相同输入多次脱敏结果一致
func TestRedactDeterministic(t *testing.T) {
	in := "a@b.com and 555-123-4567\n" + strings.Repeat("plain line\n", 3)
	first := Redact(in)
	assert.Equal(t, first, Redact(in))
}
