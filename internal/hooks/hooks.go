// Package hooks runs best-effort side effects after a write has committed.
package hooks

import (
	"context"
	"time"

	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

type Func func(ctx context.Context) error

type hook struct {
	name string
	fn   Func
}

// List collects the side effects of one write. Hooks run in the order they
// were added.
type List struct {
	hooks []hook
}

func (l *List) Add(name string, fn Func) {
	l.hooks = append(l.hooks, hook{name: name, fn: fn})
}

func (l *List) Len() int {
	return len(l.hooks)
}

// Runner executes hook lists. A failing hook is logged and counted and never
// reaches the caller.
type Runner struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewRunner(logger *logger.Logger, metrics *metrics.Metrics, timeout time.Duration) *Runner {
	return &Runner{logger: logger, metrics: metrics, timeout: timeout}
}

// Run must only be called once the primary write is durable. The request
// context's cancellation is detached so an aborted client does not cut a
// side effect short.
func (r *Runner) Run(ctx context.Context, l *List) {
	if l == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	for _, h := range l.hooks {
		r.run(base, h)
	}
}

func (r *Runner) run(base context.Context, h hook) {
	ctx, cancel := context.WithTimeout(base, r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			r.metrics.HookFailures.WithLabelValues(h.name).Inc()
			r.logger.Zerolog().Error().Interface("panic", p).Str("hook", h.name).Msg("post-commit hook panicked")
		}
	}()

	if err := h.fn(ctx); err != nil {
		r.metrics.HookFailures.WithLabelValues(h.name).Inc()
		r.logger.Warn(err, "post-commit hook failed", "hook", h.name)
	}
}
