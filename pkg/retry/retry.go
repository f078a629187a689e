// Package retry 为远程表格调用提供有限次数、随机退避的重试执行器。
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"workshop_form_backend/pkg/monitoring"
	"workshop_form_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Notifier 接收每次重试前发出的用户可见警告
type Notifier interface {
	Warn(message string)
}

// Classifier 判断错误是否为可重试的临时远程错误
type Classifier func(err error) bool

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

type Executor struct {
	policy      Policy
	isTransient Classifier
	logger      *zap.Logger
	random      func() float64
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Executor)

func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithRandom 替换 [0,1) 随机源
func WithRandom(f func() float64) Option {
	return func(e *Executor) { e.random = f }
}

func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = f }
}

func NewExecutor(policy Policy, isTransient Classifier, opts ...Option) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	e := &Executor{
		policy:      policy,
		isTransient: isTransient,
		logger:      zap.NewNop(),
		random:      rand.Float64,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Policy() Policy {
	return e.policy
}

// Delay 计算第 attempt 次失败后的等待时间: base * attempt * (0.5 + rand)
func (e *Executor) Delay(attempt int) time.Duration {
	factor := float64(attempt) * (0.5 + e.random())
	return time.Duration(float64(e.policy.BaseDelay) * factor)
}

// Do 执行 op，临时错误按策略重试，其它错误立即返回
func Do[T any](ctx context.Context, e *Executor, n Notifier, operation string, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracing.Tracer.Start(ctx, "sheets."+operation)
	defer span.End()

	var zero T
	maxAttempts := e.policy.MaxAttempts

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("sheets.attempts", attempt))
			monitoring.SheetOperations.WithLabelValues(operation, "ok").Inc()
			return result, nil
		}

		if !e.isTransient(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			monitoring.SheetOperations.WithLabelValues(operation, "error").Inc()
			return zero, err
		}

		if attempt >= maxAttempts {
			span.RecordError(err)
			span.SetStatus(codes.Error, "retries exhausted")
			monitoring.SheetOperations.WithLabelValues(operation, "exhausted").Inc()
			e.logger.Error("Sheet operation failed after retries",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return zero, err
		}

		delay := e.Delay(attempt)
		monitoring.SheetRetries.WithLabelValues(operation).Inc()
		e.logger.Warn("Transient sheet error, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		if n != nil {
			n.Warn(fmt.Sprintf("API接続エラーが発生しました。%.1f秒後に再試行します。(%d/%d)", delay.Seconds(), attempt, maxAttempts))
		}

		if err := e.sleep(ctx, delay); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled during backoff")
			monitoring.SheetOperations.WithLabelValues(operation, "cancelled").Inc()
			return zero, err
		}
	}
}

// Run 是 Do 的无返回值版本
func (e *Executor) Run(ctx context.Context, n Notifier, operation string, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, n, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
