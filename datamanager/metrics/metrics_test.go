package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/datamanager/memory"
	"github.com/hlblock/hlorm/datamanager/metrics"
)

func TestInstrumentedManager(t *testing.T) {
	registry := prometheus.NewRegistry()
	collectors, err := metrics.NewCollectors(registry)
	require.NoError(t, err)

	store := memory.New("authors",
		map[string]interface{}{"UF_NAME": "ann"},
		map[string]interface{}{"UF_NAME": "bob"},
	)
	resolve := collectors.Resolver(memory.NewRegistry(store).Resolve)
	manager, err := resolve("authors")
	require.NoError(t, err)

	ctx := context.Background()
	rows, err := manager.GetList(ctx, clause.Parameters{})
	require.NoError(t, err)
	results, err := datamanager.Collect(rows)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = manager.GetCount(ctx, clause.Filter{})
	require.NoError(t, err)
	assert.True(t, manager.Add(ctx, map[string]interface{}{"UF_NAME": "cid"}).IsSuccess())
	assert.True(t, manager.Update(ctx, 3, map[string]interface{}{"UF_NAME": "cy"}).IsSuccess())
	assert.False(t, manager.Delete(ctx, 42).IsSuccess())

	assert.Equal(t, 1, int(testutil.ToFloat64(collectors.Calls.WithLabelValues("authors", metrics.OpGetList))))
	assert.Equal(t, 1, int(testutil.ToFloat64(collectors.Calls.WithLabelValues("authors", metrics.OpDelete))))
	assert.Equal(t, 2, int(testutil.ToFloat64(collectors.Rows.WithLabelValues("authors"))))
	assert.Equal(t, 1, int(testutil.ToFloat64(collectors.Failures.WithLabelValues("authors", metrics.OpDelete))))
	assert.Equal(t, 0, int(testutil.ToFloat64(collectors.Failures.WithLabelValues("authors", metrics.OpAdd))))
	assert.Equal(t, 5, testutil.CollectAndCount(collectors.Duration))

	failing := collectors.Resolver(datamanager.Static(nil))
	_, err = failing("authors")
	assert.EqualError(t, err, "no data manager registered for table authors")
}

func TestRegisterTwice(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := metrics.NewCollectors(registry)
	require.NoError(t, err)

	_, err = metrics.NewCollectors(registry)
	assert.Error(t, err, "collectors are registered once per registry")

	_, err = metrics.NewCollectors(nil)
	assert.NoError(t, err)
}
