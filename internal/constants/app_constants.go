package constants

import "time"

const (
	// 每场测验的固定题目数
	QuizMaxQuestions = 5

	// 通过线：答对题数严格大于该值才算通过
	QuizPassThreshold = 3

	// 地点命中时的匹配分加成
	LocationBonus = 0.1

	// 会话默认存活时间，超时未答完的会话由后台清理
	QuizSessionTTL = 30 * time.Minute

	// 会话清理任务的扫描间隔
	QuizSessionSweepInterval = 5 * time.Minute
)

const (
	// 岗位描述缓存键前缀与有效期（Redis）
	JDCachePrefix   = "jd_text:"
	JDCacheDuration = 24 * time.Hour

	// 岗位地点缓存键前缀
	JobLocationCachePrefix = "jd_location:"
)

const (
	// 领域事件交换机与路由键（RabbitMQ）
	MatchEventsExchange      = "talent.match.exchange"
	ApplicationScoredRouting = "application.scored"
	QuizCompletedRouting     = "quiz.completed"
)

const (
	// 脱敏占位符
	EmailPlaceholder = "EMAIL_REMOVED"
	PhonePlaceholder = "PHONE_REMOVED"
)
