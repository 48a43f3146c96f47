package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"talent-match-go/internal/constants"
	"talent-match-go/internal/logger"
	"talent-match-go/internal/tracing"
	"talent-match-go/internal/types"
)

var quizTracer = otel.Tracer("talent-match-go/quiz")

// 会话操作的哨兵错误，handler按错误类型映射HTTP状态码
var (
	ErrSessionNotFound  = errors.New("测验会话不存在或已过期")
	ErrUserIDRequired   = errors.New("user_id不能为空")
	ErrAnswerRequired   = errors.New("answer不能为空")
	ErrNoQuizInProgress = errors.New("会话中没有进行中的测验")
	ErrNoMoreQuestions  = errors.New("没有可作答的题目")
)

// ResultRecord 测验完成后落库的终态记录
type ResultRecord struct {
	UserID    string
	JobID     string
	Field     string
	Questions []types.QuizQuestion
	Answers   []types.AnswerRecord
	Score     int
	Passed    bool
}

// ResultStore 终态记录的持久化接口，由storage层实现
type ResultStore interface {
	SaveQuizResult(ctx context.Context, record *ResultRecord) error
}

// session 一场进行中的测验
// 字段由自身的互斥锁保护；外部调用（出题）期间不持有任何锁
type session struct {
	mu sync.Mutex

	field  string
	jobID  string
	userID string

	score        int
	currentIndex int // 已作答的题目数，作答进度以它为准
	questions    []types.QuizQuestion
	answers      []types.AnswerRecord

	createdAt time.Time
}

// Manager 测验会话管理器
// 会话保存在内存中，终态记录异步写入存储后会话即被删除
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	generator QuestionGenerator
	results   ResultStore

	sessionTTL    time.Duration
	sweepInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewManager 创建会话管理器并启动过期会话的后台清理
// results可以为nil，此时终态记录只记日志不落库
func NewManager(generator QuestionGenerator, results ResultStore, sessionTTL, sweepInterval time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = constants.QuizSessionTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = constants.QuizSessionSweepInterval
	}

	m := &Manager{
		sessions:      make(map[string]*session),
		generator:     generator,
		results:       results,
		sessionTTL:    sessionTTL,
		sweepInterval: sweepInterval,
		stopCh:        make(chan struct{}),
		logger:        logger.With("quiz_manager"),
	}

	go m.sweepLoop()
	return m
}

// Close 停止后台清理
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// StartSession 创建一场新测验，返回会话ID和欢迎语
// userID是申请人标识，缺失时拒绝创建
func (m *Manager) StartSession(ctx context.Context, field, jobID, userID string) (string, string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", "", ErrUserIDRequired
	}

	sessionID := uuid.NewString()

	m.mu.Lock()
	m.sessions[sessionID] = &session{
		field:     field,
		jobID:     jobID,
		userID:    userID,
		questions: make([]types.QuizQuestion, 0, constants.QuizMaxQuestions),
		answers:   make([]types.AnswerRecord, 0, constants.QuizMaxQuestions),
		createdAt: time.Now(),
	}
	m.mu.Unlock()

	m.logger.Info().
		Str("session_id", sessionID).
		Str("field", field).
		Str("job_id", jobID).
		Msg("测验会话已创建")

	message := fmt.Sprintf("🔍 Starting %s quiz!", field)
	return sessionID, message, nil
}

// NextQuestion 为会话生成下一道题
// 已出满5题时返回Finished视图；出题期间不持有会话锁，
// 出题返回后重新校验会话状态，并发出题只保留先到的那道
func (m *Manager) NextQuestion(ctx context.Context, sessionID, difficulty string) (*types.QuestionView, error) {
	sess, ok := m.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	if len(sess.questions) >= constants.QuizMaxQuestions {
		sess.mu.Unlock()
		return &types.QuestionView{Finished: true}, nil
	}
	topic := sess.field
	existing := make([]types.QuizQuestion, len(sess.questions))
	copy(existing, sess.questions)
	sess.mu.Unlock()

	ctx, span := quizTracer.Start(ctx, "quiz.generate_question",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("quiz.topic", topic),
			attribute.String("quiz.difficulty", difficulty),
			attribute.Int("quiz.existing_questions", len(existing)),
			attribute.String("quiz.prompt", tracing.SafePrompt(buildQuestionPrompt(topic, difficulty, existing))),
		),
	)
	question, err := m.generator.Generate(ctx, topic, difficulty, existing)
	if err != nil {
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeGenerator,
			attribute.String("quiz.topic", topic),
			attribute.String("quiz.difficulty", difficulty),
		)
		span.End()
		return nil, fmt.Errorf("生成题目失败: %w", err)
	}
	span.End()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if len(sess.questions) >= constants.QuizMaxQuestions {
		// 出题期间其他请求已把题出满，丢弃本次结果
		return &types.QuestionView{Finished: true}, nil
	}
	sess.questions = append(sess.questions, *question)

	return &types.QuestionView{
		Question: question.Question,
		Options:  question.Options,
		QNumber:  len(sess.questions),
		Finished: false,
	}, nil
}

// SubmitAnswer 提交当前题目的作答
// 非终态返回progress，第五题作答后返回result并删除会话
// 作答进度以currentIndex为准，对同一道题的重复提交会被当作下一题的作答拒绝
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID, answer string) (*types.QuizProgress, *types.QuizResult, error) {
	userAnswer := strings.ToUpper(strings.TrimSpace(answer))
	if userAnswer == "" {
		return nil, nil, ErrAnswerRequired
	}

	sess, ok := m.lookup(sessionID)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.questions) == 0 {
		return nil, nil, ErrNoQuizInProgress
	}
	if sess.currentIndex >= len(sess.questions) {
		return nil, nil, ErrNoMoreQuestions
	}

	currentQuestion := sess.questions[sess.currentIndex]
	correct := userAnswer == strings.ToUpper(currentQuestion.Answer)

	sess.answers = append(sess.answers, types.AnswerRecord{
		User:    userAnswer,
		Correct: correct,
	})

	var feedback string
	if correct {
		sess.score++
		feedback = "✅ Correct!"
	} else {
		feedback = fmt.Sprintf("❌ Incorrect. Correct answer was %s", currentQuestion.Answer)
	}

	sess.currentIndex++

	if sess.currentIndex < constants.QuizMaxQuestions {
		return &types.QuizProgress{
			Feedback: feedback,
			Score:    sess.score,
			Finished: false,
		}, nil, nil
	}

	// 终态：判定通过与否，异步落库并删除会话
	passed := sess.score > constants.QuizPassThreshold
	var resultMessage string
	if passed {
		resultMessage = fmt.Sprintf("🎉 You passed the quiz with a score of %d/%d!", sess.score, constants.QuizMaxQuestions)
	} else {
		resultMessage = fmt.Sprintf("❌ You failed the quiz with a score of %d/%d.", sess.score, constants.QuizMaxQuestions)
	}

	record := &ResultRecord{
		UserID:    sess.userID,
		JobID:     sess.jobID,
		Field:     sess.field,
		Questions: append([]types.QuizQuestion(nil), sess.questions...),
		Answers:   append([]types.AnswerRecord(nil), sess.answers...),
		Score:     sess.score,
		Passed:    passed,
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	m.persistResult(sessionID, record)

	return nil, &types.QuizResult{
		Feedback:      feedback,
		Score:         record.Score,
		Finished:      true,
		Passed:        passed,
		ResultMessage: resultMessage,
	}, nil
}

// Results 查询进行中会话的实时成绩
// 终态会话已被删除，查询会返回ErrSessionNotFound
func (m *Manager) Results(ctx context.Context, sessionID string) (*types.QuizResultsView, error) {
	sess, ok := m.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	correct := 0
	for _, record := range sess.answers {
		if record.Correct {
			correct++
		}
	}

	return &types.QuizResultsView{
		TotalQuestions: len(sess.questions),
		CorrectAnswers: correct,
		Score:          sess.score,
		Details:        append([]types.AnswerRecord(nil), sess.answers...),
	}, nil
}

// SessionCount 返回当前存活的会话数，用于健康检查与测试
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(sessionID string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[strings.TrimSpace(sessionID)]
	return sess, ok
}

// persistResult 异步写终态记录
// 落库失败只记日志，不影响返回给答题方的终态响应
func (m *Manager) persistResult(sessionID string, record *ResultRecord) {
	if m.results == nil {
		m.logger.Info().
			Str("session_id", sessionID).
			Int("score", record.Score).
			Bool("passed", record.Passed).
			Msg("未配置结果存储, 测验终态仅记录日志")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.results.SaveQuizResult(ctx, record); err != nil {
			m.logger.Error().
				Err(err).
				Str("session_id", sessionID).
				Str("user_id", record.UserID).
				Msg("测验结果落库失败")
			return
		}
		m.logger.Info().
			Str("session_id", sessionID).
			Str("user_id", record.UserID).
			Int("score", record.Score).
			Bool("passed", record.Passed).
			Msg("测验结果已保存")
	}()
}

// sweepLoop 周期清理超过TTL的会话，防止半途而废的测验泄漏内存
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweepExpired()
		}
	}
}

func (m *Manager) sweepExpired() {
	cutoff := time.Now().Add(-m.sessionTTL)

	m.mu.Lock()
	expired := 0
	for id, sess := range m.sessions {
		if sess.createdAt.Before(cutoff) {
			delete(m.sessions, id)
			expired++
		}
	}
	m.mu.Unlock()

	if expired > 0 {
		m.logger.Info().Int("expired", expired).Msg("清理了过期的测验会话")
	}
}
