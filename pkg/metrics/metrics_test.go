package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNameServer_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewNameServer(reg)

	m.CommandsTotal.WithLabelValues("VIEW").Inc()
	m.ActiveSessions.Set(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveCommand_IncrementsAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorageServer(reg)

	ObserveCommand(m.CommandsTotal, m.CommandDuration, "WRITE", time.Now().Add(-time.Millisecond))

	var metric dto.Metric
	require.NoError(t, m.CommandsTotal.WithLabelValues("WRITE").Write(&metric))
	assert.Equal(t, float64(1), metric.GetCounter().GetValue())
}
