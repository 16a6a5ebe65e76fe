package safe

import (
	"context"
	"sync"
	"time"

	"PPHub/logger"
	"PPHub/tools/errs"

	"go.uber.org/zap"
)

// SafeGo starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[SafeGo] panic recovered", zap.Error(errs.ErrPanic(r)))
			}
		}()
		f()
	}()
}

// Detach runs f on its own goroutine with a fresh context bounded by timeout.
// The caller never waits for it; a returned error is only logged under name.
func Detach(name string, timeout time.Duration, f func(ctx context.Context) error) {
	SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := f(ctx); err != nil {
			logger.Warn("detached task failed", zap.String("task", name), zap.Error(err))
		}
	})
}

// Tasks 跟踪分离出去的任务，停机时可以等它们落地。零值可用。
type Tasks struct {
	wg sync.WaitGroup
}

// Detach 同包级 Detach，但计入 Wait
func (t *Tasks) Detach(name string, timeout time.Duration, f func(ctx context.Context) error) {
	t.wg.Add(1)
	Detach(name, timeout, func(ctx context.Context) error {
		defer t.wg.Done()
		return f(ctx)
	})
}

// Wait blocks until every tracked task has returned or ctx is done.
func (t *Tasks) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
