package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/rant/internal/logger"
)

// loop runs a job on a ticker and on manual triggers until stopped.
type loop struct {
	name     string
	interval time.Duration
	trigger  <-chan struct{} // nil = no manual trigger
	logger   logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newLoop(name string, interval time.Duration, trigger <-chan struct{}, log logger.Logger) *loop {
	return &loop{
		name:     name,
		interval: interval,
		trigger:  trigger,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

func (l *loop) start(ctx context.Context, job func(context.Context) error) {
	l.done = make(chan struct{})
	ticker := time.NewTicker(l.interval)

	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.run(ctx, job)
			case <-l.trigger:
				l.logger.Info("manual run triggered", logger.String("job", l.name))
				l.run(ctx, job)
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (l *loop) run(ctx context.Context, job func(context.Context) error) {
	if err := job(ctx); err != nil {
		l.logger.Error("scheduled job failed",
			logger.String("job", l.name),
			logger.Error(err))
	}
}

// stop ends the loop and waits for a running job to return. It is safe to
// call more than once, and before start.
func (l *loop) stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.done != nil {
		<-l.done
	}
}
