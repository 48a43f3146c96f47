package extractor

import (
	"regexp"

	"talent-match-go/internal/constants"
)

// 邮箱与电话的匹配模式
// 电话模式刻意宽松：可选国家码、可选括号区号、分隔符（空格/点/横线）分组的数字串
// 要求至少三段数字，避免把简历中的孤立4位年份当作电话处理
var (
	emailPattern = regexp.MustCompile(`\S+@\S+`)
	phonePattern = regexp.MustCompile(`\+?\d{0,3}[\s.-]?\(?\d{1,4}\)?(?:[\s.-]?\d{2,4}){2,3}`)
)

// Redact 去除文本中的个人身份信息
// 邮箱替换为EMAIL_REMOVED，电话样式的数字串替换为PHONE_REMOVED
// 无副作用且确定性：没有匹配项时原样返回
func Redact(text string) string {
	text = emailPattern.ReplaceAllString(text, constants.EmailPlaceholder)
	text = phonePattern.ReplaceAllString(text, constants.PhonePlaceholder)
	return text
}
