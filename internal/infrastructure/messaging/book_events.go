// Package messaging 将图书变更事件发布到消息队列
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/circuitbreaker"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// breakerName 熔断器名称（同时作为指标标签）
const breakerName = "book-events"

// MessagePublisher 底层消息发布能力（pkg/mq.Publisher实现）
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// BookEventPublisher 图书事件发布者
// 设计说明:
// 1. 事件类型即routing key(book.created / book.updated / book.deleted)
// 2. 经过熔断器发布:MQ持续故障时快速失败,不拖慢图书写操作
// 3. 每次发布按结果计数(success / failure / rejected)
type BookEventPublisher struct {
	publisher MessagePublisher
	breaker   *circuitbreaker.CircuitBreaker
}

// NewBookEventPublisher 创建图书事件发布者
func NewBookEventPublisher(publisher MessagePublisher) *BookEventPublisher {
	return newBookEventPublisher(publisher, circuitbreaker.NewCircuitBreaker(breakerName, circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	}))
}

func newBookEventPublisher(publisher MessagePublisher, breaker *circuitbreaker.CircuitBreaker) *BookEventPublisher {
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		slog.Warn("熔断器状态变化", "name", name, "from", from.String(), "to", to.String())
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	})
	return &BookEventPublisher{publisher: publisher, breaker: breaker}
}

// Publish 发布图书事件
func (p *BookEventPublisher) Publish(ctx context.Context, event book.Event) error {
	routingKey := string(event.Type)

	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.publisher.Publish(ctx, routingKey, event)
	})

	result := metrics.Result(err)
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		result = "rejected"
	}
	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
		"routing_key": routingKey,
		"result":      result,
	})

	return err
}
