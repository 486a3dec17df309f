package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinener/internal/metrics"
)

func TestEnable_ServesRecordedMetrics(t *testing.T) {
	prev := metrics.Default()
	t.Cleanup(func() { metrics.SetRecorder(prev) })

	h := metrics.Enable()
	done := metrics.TimeProvider("Dandelion")
	done(false)
	metrics.Default().AddRowsProcessed(3)
	metrics.Default().IncChangeOp("apply", true)

	srv := httptest.NewServer(h)
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `ner_provider_calls_total{provider="Dandelion",success="false"} 1`)
	assert.Contains(t, text, "ner_provider_call_seconds_bucket")
	assert.Contains(t, text, "ner_rows_processed_total 3")
	assert.Contains(t, text, `ner_change_ops_total{op="apply",success="true"} 1`)
}

func TestDefault_NoopRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.Default().IncProviderCall("x", true)
		metrics.TimeProvider("x")(true)
	})
}
