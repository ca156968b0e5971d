package internal

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	m.ObserveDispatch(ActionQuitterConversation, "true")
	m.ObserveFailure(ActionRecueilConsentement, "internal")
	assert.Nil(t, m.Registry())

	e := NewHashEmbedder(8)
	assert.Same(t, Embedder(e), m.Instrument(e, BackendHash))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestInstrumentedEmbedder(t *testing.T) {
	m := NewMetrics()
	stub := newStubEmbedder(4)
	e := m.Instrument(stub, "stub")
	ctx := context.Background()

	_, err := e.Embed(ctx, "oui")
	require.NoError(t, err)
	_, err = e.EmbedBatch(ctx, []string{"oui", "non"})
	require.NoError(t, err)

	stub.mu.Lock()
	stub.failEmbed = true
	stub.mu.Unlock()
	_, err = e.Embed(ctx, "oui")
	require.Error(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.embedLatency))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.embedFailures.WithLabelValues("stub")))
	assert.Equal(t, 4, e.Dimension())

	require.NoError(t, e.Close())
	assert.True(t, stub.closed)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveDispatch(ActionPositiveNegativeReponse, "negative")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `consent_dispatch_total{action="positive_negative_reponse",result="negative"} 1`)
}
