package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"talent-match-go/internal/config"
	"talent-match-go/internal/constants"
	"talent-match-go/internal/logger"
)

// MessageQueue 消息队列接口
type MessageQueue interface {
	// 发布消息
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error

	// 发布JSON格式消息
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error

	// 确保交换机存在
	EnsureExchange(exchangeName, exchangeType string, durable bool) error

	// 关闭连接
	Close() error
}

var _ MessageQueue = (*RabbitMQ)(nil)

// ApplicationScoredEvent 投递打分完成事件
type ApplicationScoredEvent struct {
	ApplicationID string    `json:"application_id"`
	JobID         string    `json:"job_id"`
	ApplicantName string    `json:"applicant_name"`
	Email         string    `json:"email"`
	MatchingScore float64   `json:"matching_score"`
	LocationMatch bool      `json:"location_match"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// QuizCompletedEvent 测验完成事件
type QuizCompletedEvent struct {
	UserID     string    `json:"user_id"`
	JobID      string    `json:"job_id"`
	Field      string    `json:"field"`
	Score      int       `json:"score"`
	Passed     bool      `json:"passed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RabbitMQ 提供消息队列功能，对外发布领域事件
type RabbitMQ struct {
	conn         *amqp.Connection
	channelPool  sync.Pool
	exchangeMap  map[string]bool
	publishMutex sync.Mutex
	exchange     string

	// 发布失败后的重试次数与间隔，来自配置
	maxRetries    int
	retryInterval time.Duration

	logger zerolog.Logger
}

// NewRabbitMQ 创建RabbitMQ客户端并声明领域事件交换机
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	exchange := cfg.MatchEventsExchange
	if exchange == "" {
		exchange = constants.MatchEventsExchange
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	mq := &RabbitMQ{
		conn:          conn,
		exchangeMap:   make(map[string]bool),
		exchange:      exchange,
		maxRetries:    maxRetries,
		retryInterval: config.GetDuration(cfg.RetryInterval, 5*time.Second),
		logger:        logger.With("rabbitmq"),
	}

	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, chErr := conn.Channel()
			if chErr != nil {
				mq.logger.Error().Err(chErr).Msg("创建RabbitMQ通道失败")
				return nil
			}
			return ch
		},
	}

	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道")
	}
	mq.putChannel(testCh)

	if err := mq.EnsureExchange(exchange, "topic", true); err != nil {
		conn.Close()
		return nil, err
	}

	mq.logger.Info().Str("exchange", exchange).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch := r.channelPool.Get()
	if ch == nil {
		newCh, err := r.conn.Channel()
		if err != nil {
			r.logger.Error().Err(err).Msg("创建新RabbitMQ通道失败")
			return nil
		}
		return newCh
	}
	return ch.(*amqp.Channel)
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange 确保exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}

	if _, exists := r.exchangeMap[exchangeName]; exists {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	err := ch.ExchangeDeclare(
		exchangeName, // exchange名称
		exchangeType, // exchange类型
		durable,      // 持久化
		false,        // 自动删除
		false,        // 内部专用
		false,        // 非阻塞
		nil,          // 参数
	)
	if err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	r.logger.Debug().Str("exchange", exchangeName).Msg("已确保exchange存在")
	return nil
}

// PublishMessage 发布消息到exchange
// 失败时按配置的间隔重试，每次重试取新通道，ctx取消即放弃
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	var deliveryMode uint8 = 1 // 非持久化
	if persistent {
		deliveryMode = 2
	}

	publish := func() error {
		ch := r.getChannel()
		if ch == nil {
			return fmt.Errorf("无法获取RabbitMQ通道")
		}
		defer r.putChannel(ch)

		return ch.PublishWithContext(
			ctx,
			exchangeName, // exchange名
			routingKey,   // 路由键
			false,        // 强制
			false,        // 立即
			amqp.Publishing{
				DeliveryMode: deliveryMode,
				ContentType:  "application/json",
				Body:         message,
				Timestamp:    time.Now(),
			},
		)
	}

	if err := retryPublish(ctx, r.maxRetries+1, r.retryInterval, publish); err != nil {
		r.logger.Error().
			Err(err).
			Str("exchange", exchangeName).
			Str("routing_key", routingKey).
			Int("max_retries", r.maxRetries).
			Msg("发布消息失败")
		return err
	}
	return nil
}

// retryPublish 执行publish并在失败时以固定间隔重试，共尝试attempts次
// ctx取消时立即停止，返回最后一次失败的错误
func retryPublish(ctx context.Context, attempts int, interval time.Duration, publish func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = publish(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("发布重试被中断: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
	return err
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}

// PublishApplicationScored 发布投递打分完成事件
// 事件发布失败只影响下游订阅方，不影响投递本身，由调用方决定是否忽略
func (r *RabbitMQ) PublishApplicationScored(ctx context.Context, event *ApplicationScoredEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return r.PublishJSON(ctx, r.exchange, constants.ApplicationScoredRouting, event, true)
}

// PublishQuizCompleted 发布测验完成事件
func (r *RabbitMQ) PublishQuizCompleted(ctx context.Context, event *QuizCompletedEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return r.PublishJSON(ctx, r.exchange, constants.QuizCompletedRouting, event, true)
}
