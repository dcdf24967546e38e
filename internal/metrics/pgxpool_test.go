package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolCollector(t *testing.T) {
	stats := PoolStats{Acquired: 3, Idle: 2, Total: 5, Max: 10}
	c := NewPoolCollector(func() PoolStats { return stats })

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP pgxpool_acquired_conns Number of currently acquired connections in the pool
# TYPE pgxpool_acquired_conns gauge
pgxpool_acquired_conns 3
# HELP pgxpool_max_conns Maximum number of connections in the pool
# TYPE pgxpool_max_conns gauge
pgxpool_max_conns 10
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "pgxpool_acquired_conns", "pgxpool_max_conns")
	assert.NoError(t, err)

	stats.Acquired = 7
	assert.Equal(t, 4, testutil.CollectAndCount(c))
}
