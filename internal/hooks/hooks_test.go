package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rpmweb/rpm-api/pkg/anchor"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

func TestRunnerRunsEveryHookAndSwallowsFailures(t *testing.T) {
	m := metrics.New("hooks_test")
	r := NewRunner(logger.Nop(), m, time.Second)

	var order []string
	var l List
	l.Add("anchor", func(context.Context) error {
		order = append(order, "anchor")
		return errors.New("rpc down")
	})
	l.Add("explode", func(context.Context) error {
		order = append(order, "explode")
		panic("nil map")
	})
	l.Add("notify", func(context.Context) error {
		order = append(order, "notify")
		return nil
	})

	r.Run(context.Background(), &l)

	assert.Equal(t, []string{"anchor", "explode", "notify"}, order)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HookFailures.WithLabelValues("anchor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HookFailures.WithLabelValues("explode")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HookFailures.WithLabelValues("notify")))
}

func TestRunnerDetachesRequestCancellation(t *testing.T) {
	r := NewRunner(logger.Nop(), metrics.New("hooks_cancel_test"), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var hookErr error
	var l List
	l.Add("notify", func(ctx context.Context) error {
		hookErr = ctx.Err()
		return nil
	})
	r.Run(ctx, &l)

	assert.NoError(t, hookErr)
}

type fakeAnchor struct {
	txHash string
	err    error
}

func (f fakeAnchor) Store(context.Context, interface{}) (string, error) { return f.txHash, f.err }

func (f fakeAnchor) Verify(context.Context, string, interface{}) (bool, error) { return false, f.err }

func TestAnchorHook(t *testing.T) {
	t.Run("saves receipt", func(t *testing.T) {
		var saved string
		fn := Anchor(fakeAnchor{txHash: "0xabc"}, map[string]string{"a": "b"}, func(_ context.Context, h string) error {
			saved = h
			return nil
		})
		assert.NoError(t, fn(context.Background()))
		assert.Equal(t, "0xabc", saved)
	})

	t.Run("disabled is not a failure", func(t *testing.T) {
		called := false
		fn := Anchor(anchor.Noop{}, nil, func(context.Context, string) error {
			called = true
			return nil
		})
		assert.NoError(t, fn(context.Background()))
		assert.False(t, called)
	})

	t.Run("store error surfaces", func(t *testing.T) {
		fn := Anchor(fakeAnchor{err: errors.New("rpc down")}, nil, nil)
		assert.ErrorContains(t, fn(context.Background()), "rpc down")
	})
}
