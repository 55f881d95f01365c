package metrics_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretwire/internal/metrics"
)

func TestDumpWritesTextExposition(t *testing.T) {
	metrics.InitMetrics()
	metrics.RecordSecretOutcome("materialized")
	metrics.ObserveFetch("static", 5*time.Millisecond)
	metrics.RecordFragments(3)
	metrics.RecordConflict()

	var buf bytes.Buffer
	require.NoError(t, metrics.Dump(&buf))

	out := buf.String()
	assert.Contains(t, out, "secretwire_secrets_resolved_total")
	assert.Contains(t, out, "secretwire_fetch_duration_seconds")
	assert.Contains(t, out, "secretwire_fragments_planned_total")
	assert.Contains(t, out, "secretwire_injection_conflicts_total")
}
