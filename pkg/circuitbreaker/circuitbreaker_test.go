package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(Settings{Name: "anchor", MaxFailures: 2, Timeout: time.Minute})
	cb.now = func() time.Time { return now }

	boom := errors.New("rpc unavailable")
	calls := 0
	failing := func() error { calls++; return boom }

	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.Equal(t, StateOpen, cb.State())

	// Open: the function is not called.
	assert.ErrorIs(t, cb.Execute(failing), ErrOpen)
	assert.Equal(t, 2, calls)

	// After the timeout one trial call goes through; a failure reopens.
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
