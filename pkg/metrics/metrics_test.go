package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.QueriesTotal.WithLabelValues("weather", "ok").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.QueriesTotal.WithLabelValues("weather", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.QueriesTotal.WithLabelValues("weather", "ok")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.IndexChunks.Set(42)
	m.IndexRebuildsTotal.WithLabelValues("success").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "document_index_chunks 42")
	assert.Contains(t, string(body), `document_index_rebuilds_total{status="success"} 1`)
}
