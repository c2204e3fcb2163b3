package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.Lookup("found")
	m.Lookup("found")
	m.RegistryRequest("main", "ok")
	m.Greeting(true)
	m.Greeting(false)
	m.Export("pdf", "ok", 1.5)
	m.HTTPRequest("GET", "200")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookups.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registryRequests.WithLabelValues("main", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.greetings.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.greetings.WithLabelValues("generated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("pdf", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.Lookup("found")
		m.RegistryRequest("main", "ok")
		m.Greeting(true)
		m.Export("png", "error", 0)
		m.HTTPRequest("GET", "500")
	})
}
