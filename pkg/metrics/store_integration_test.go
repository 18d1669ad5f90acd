//go:build influxdbintegration

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// exercises a live influxdb listening on localhost:8086
func TestStoreIntegration(t *testing.T) {
	store, err := NewStore(WithDatabase("fogtest_it"))
	require.NoError(t, err)

	require.NoError(t, store.Ping(context.Background(), time.Second))

	require.NoError(t, store.WriteBatch(context.Background(), []MetricPoint{
		{
			Measurement: taskMeasurement,
			Tags:        map[string]string{"branch": "master", "platform": "linux", "status": "pass"},
			Fields:      map[string]interface{}{"test_seconds": 12.5},
			Timestamp:   time.Now(),
		},
	}))
}
