// Package signals turns OS notifications into bus events: light hot-plug,
// session lock and unlock, and suspend and resume. A source whose OS facility
// is missing logs a warning and stays idle; it never stops the daemon.
package signals

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Source is a signal source with a start/stop lifecycle.
type Source interface {
	Start(ctx context.Context) error
	Stop()
}

// loop runs one background goroutine per source.
type loop struct {
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func (l *loop) start(ctx context.Context, run func(ctx context.Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		run(ctx)
	}()
}

func (l *loop) stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		cancel, done := l.cancel, l.done
		l.mu.Unlock()

		if cancel == nil {
			return
		}
		cancel()
		<-done
	})
}

// reconnectInitial is the first delay between connect attempts.
var reconnectInitial = time.Second

// reconnectBackOff paces reconnect attempts. It never gives up; the context
// ends it.
func reconnectBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = reconnectInitial
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0
	return backoff.WithContext(bo, ctx)
}

// dial calls connect until it succeeds or ctx ends. Only the first failure
// is logged as a warning.
func dial[T any](ctx context.Context, logger *slog.Logger, what string, connect func() (T, error)) (T, error) {
	var (
		conn     T
		attempts int
	)
	err := backoff.Retry(func() error {
		var err error
		conn, err = connect()
		if err != nil {
			attempts++
			if attempts == 1 {
				logger.Warn(what+" unavailable, retrying", "error", err)
			} else {
				logger.Debug(what+" connect failed", "attempt", attempts, "error", err)
			}
		}
		return err
	}, reconnectBackOff(ctx))
	return conn, err
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
