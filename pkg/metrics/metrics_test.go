package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHelpers(t *testing.T) {
	m := New("rpm_test")

	m.ObserveAnchor("store", nil)
	m.ObserveAnchor("store", errors.New("rpc down"))
	m.ObserveAnchor("store", errors.New("rpc down"))
	m.ObservePin("upload", nil)
	m.HookFailures.WithLabelValues("notify_patient").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnchorOperations.WithLabelValues("store", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnchorOperations.WithLabelValues("store", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PinOperations.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HookFailures.WithLabelValues("notify_patient")))
}
