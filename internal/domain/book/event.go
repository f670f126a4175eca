package book

import (
	"context"
	"time"
)

// EventType 图书变更事件类型(同时作为MQ的routing key)
type EventType string

const (
	EventCreated EventType = "book.created"
	EventUpdated EventType = "book.updated"
	EventDeleted EventType = "book.deleted"
)

// Event 图书变更事件
// 删除事件不携带Book
type Event struct {
	Type       EventType `json:"type"`
	BookID     uint      `json:"book_id"`
	Book       *Book     `json:"book,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher 事件发布者
// 发布失败只记录日志,不影响已提交的变更
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
