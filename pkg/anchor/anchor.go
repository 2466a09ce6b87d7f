// Package anchor records payload digests on an external ledger and checks
// them later for tamper evidence.
package anchor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/rpmweb/rpm-api/pkg/circuitbreaker"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

// ErrDisabled is returned by clients that have no ledger configured.
var ErrDisabled = errors.New("anchoring disabled")

type Client interface {
	// Store submits the payload digest and returns the receipt (tx hash).
	Store(ctx context.Context, payload interface{}) (string, error)
	// Verify reports whether the receipt carries the digest of payload.
	Verify(ctx context.Context, txHash string, payload interface{}) (bool, error)
}

// Digest is the keccak-256 of the JSON encoding of payload. Map keys are
// encoded in sorted order so equal payloads give equal digests.
func Digest(payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode anchor payload: %w", err)
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil), nil
}

// Noop is used when anchoring is switched off.
type Noop struct{}

func (Noop) Store(context.Context, interface{}) (string, error) { return "", ErrDisabled }

func (Noop) Verify(context.Context, string, interface{}) (bool, error) { return false, ErrDisabled }

// Guarded wraps a client with a per-call timeout, a circuit breaker and
// metrics.
type Guarded struct {
	client  Client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewGuarded(client Client, m *metrics.Metrics, timeout time.Duration) *Guarded {
	return &Guarded{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "anchor",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		metrics: m,
		timeout: timeout,
	}
}

func (g *Guarded) Store(ctx context.Context, payload interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var txHash string
	start := time.Now()
	err := g.cb.Execute(func() error {
		var err error
		txHash, err = g.client.Store(ctx, payload)
		return err
	})
	g.metrics.ExternalLatency.WithLabelValues("anchor").Observe(time.Since(start).Seconds())
	g.metrics.ObserveAnchor("store", err)
	return txHash, err
}

func (g *Guarded) Verify(ctx context.Context, txHash string, payload interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var ok bool
	err := g.cb.Execute(func() error {
		var err error
		ok, err = g.client.Verify(ctx, txHash, payload)
		return err
	})
	g.metrics.ObserveAnchor("verify", err)
	return ok, err
}

// Check verifies a stored receipt. A missing receipt or a disabled client
// reports false without an error.
func Check(ctx context.Context, client Client, txHash *string, payload interface{}) (bool, error) {
	if txHash == nil || *txHash == "" {
		return false, nil
	}
	ok, err := client.Verify(ctx, *txHash, payload)
	if errors.Is(err, ErrDisabled) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify anchor: %w", err)
	}
	return ok, nil
}
