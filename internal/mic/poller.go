package mic

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/onair/internal/events"
)

// DefaultPollInterval is how often the capture store is re-read.
const DefaultPollInterval = 500 * time.Millisecond

// Querier is satisfied by Detector.
type Querier interface {
	ActiveUsers(ctx context.Context) ([]string, error)
}

// Poller re-reads the capture store on an interval and publishes a
// MicActivityEvent whenever the set of users changes.
type Poller struct {
	query    Querier
	eventBus *events.Bus
	interval time.Duration
	logger   *slog.Logger

	last   []string
	seeded bool
	missed bool

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller. A non-positive interval selects the default.
func NewPoller(query Querier, eventBus *events.Bus, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		query:    query,
		eventBus: eventBus,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins polling in the background.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
	p.logger.Info("Mic poller started", "interval", p.interval)
	return nil
}

// Stop ends polling and waits for the loop to exit.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel == nil {
			close(p.done)
			return
		}
		p.cancel()
		<-p.done
		p.logger.Info("Mic poller stopped")
	})
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll reads the store once. A first read that succeeds on the very first
// poll only seeds the last known set, since the manager evaluated the same
// store on startup. After a failed read the manager may hold a stale answer,
// so the first success is published.
func (p *Poller) poll(ctx context.Context) {
	qctx, cancel := context.WithTimeout(ctx, p.interval*4)
	users, err := p.query.ActiveUsers(qctx)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Debug("Capture store poll failed", "error", err)
		}
		if !p.seeded {
			p.missed = true
		}
		return
	}

	if p.seeded && slices.Equal(users, p.last) {
		return
	}
	quiet := !p.seeded && !p.missed
	p.last = users
	p.seeded = true
	if quiet {
		return
	}

	p.logger.Info("Mic users changed", "active", len(users) > 0, "users", users)
	p.eventBus.Publish(events.MicActivityEvent{
		Active:    len(users) > 0,
		Users:     users,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
