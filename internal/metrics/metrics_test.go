package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(CounterImportRows.WithLabelValues("success"))
	CounterImportRows.WithLabelValues("success").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(CounterImportRows.WithLabelValues("success")))

	GaugeTaskQueueDepth.Set(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(GaugeTaskQueueDepth))
	GaugeTaskQueueDepth.Set(0)
}
