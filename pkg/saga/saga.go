// Package saga 实现按步骤执行、失败逆序补偿的流程编排
//
// 核心思想：
// 1. 将一个跨多次写入的操作拆分为若干步骤
// 2. 每个步骤可以注册对应的补偿操作
// 3. 某一步失败时，按逆序执行已完成步骤的补偿操作
//
// 本项目中用于"先插入记录、再挂封面"的图书创建流程：
// 封面路径写回失败时删除刚插入的记录，避免留下半成品。
package saga

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Step Saga中的单个步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志和调试）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作（可为nil）
}

// Saga 一次性的流程编排器（执行后不可复用）
type Saga struct {
	steps    []Step        // 所有步骤
	executed []Step        // 已执行的步骤（用于补偿）
	timeout  time.Duration // 整体超时时间，0表示不限制
}

// NewSaga 创建Saga
func NewSaga(timeout time.Duration) *Saga {
	return &Saga{
		steps:   make([]Step, 0),
		timeout: timeout,
	}
}

// AddStep 添加步骤
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 按顺序执行所有步骤
// 任一步骤失败或超时都会触发补偿，并返回包装后的原始错误
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		select {
		case <-ctx.Done():
			// 补偿使用独立的Context，避免补偿也因超时被取消
			s.compensate(context.WithoutCancel(ctx))
			return fmt.Errorf("saga超时: %w", ctx.Err())
		default:
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.compensate(context.WithoutCancel(ctx))
				return fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err)
			}
		}

		s.executed = append(s.executed, step)
	}

	return nil
}

// compensate 逆序执行补偿操作
// 补偿失败只记录日志，继续执行剩余补偿
func (s *Saga) compensate(ctx context.Context) {
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			slog.Error("saga补偿失败", "step", step.Name, "error", err)
		}
	}

	s.executed = nil
}
