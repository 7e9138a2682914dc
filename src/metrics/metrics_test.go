package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ProviderFallbacks.WithLabelValues("news", "no_api_key"))
	ProviderFallbacks.WithLabelValues("news", "no_api_key").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderFallbacks.WithLabelValues("news", "no_api_key")))

	hits := testutil.ToFloat64(CacheLookups.WithLabelValues("prices", "hit"))
	CacheLookups.WithLabelValues("prices", "hit").Add(2)
	assert.Equal(t, hits+2, testutil.ToFloat64(CacheLookups.WithLabelValues("prices", "hit")))
}
