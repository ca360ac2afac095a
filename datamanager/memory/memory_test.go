package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/datamanager/memory"
)

func newArticles() *memory.Store {
	return memory.New("articles",
		map[string]interface{}{"UF_TITLE": "go", "UF_SORT": 30, "UF_TYPE": "news"},
		map[string]interface{}{"UF_TITLE": "rust", "UF_SORT": 10, "UF_TYPE": "blog"},
		map[string]interface{}{"UF_TITLE": "zig", "UF_SORT": 20, "UF_TYPE": "news"},
	)
}

func collect(t *testing.T, rows datamanager.Rows, err error) []map[string]interface{} {
	t.Helper()
	require.NoError(t, err)
	results, err := datamanager.Collect(rows)
	require.NoError(t, err)
	return results
}

func titles(rows []map[string]interface{}) []interface{} {
	var results []interface{}
	for _, row := range rows {
		results = append(results, row["UF_TITLE"])
	}
	return results
}

func TestGetList(t *testing.T) {
	ctx := context.Background()
	store := newArticles()

	t.Run("filter", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{
			Filter: clause.NewFilter(clause.Cond{Op: clause.Gt, Column: "UF_SORT", Value: 15}),
		})
		assert.Equal(t, []interface{}{"go", "zig"}, titles(collect(t, rows, err)))
	})

	t.Run("order limit offset", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{
			Order:  []clause.OrderByColumn{{Column: "UF_SORT", Desc: true}},
			Limit:  1,
			Offset: 1,
		})
		assert.Equal(t, []interface{}{"zig"}, titles(collect(t, rows, err)))
	})

	t.Run("offset past the end", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{Offset: 10})
		assert.Empty(t, collect(t, rows, err))
	})

	t.Run("select", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{Select: []string{"ID"}, Limit: 1})
		assert.Equal(t, []map[string]interface{}{{"ID": int64(1)}}, collect(t, rows, err))
	})

	t.Run("group", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{Group: []string{"UF_TYPE"}})
		assert.Equal(t, []interface{}{"go", "rust"}, titles(collect(t, rows, err)))
	})

	t.Run("ids", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{
			Filter: clause.NewFilter(clause.Cond{Op: clause.Eq, Column: "ID", Value: []interface{}{"1", 3}}),
		})
		assert.Equal(t, []interface{}{"go", "zig"}, titles(collect(t, rows, err)))
	})

	t.Run("rows are copies", func(t *testing.T) {
		rows, err := store.GetList(ctx, clause.Parameters{Limit: 1})
		results := collect(t, rows, err)
		results[0]["UF_TITLE"] = "changed"
		assert.Equal(t, "go", store.Rows()[0]["UF_TITLE"])
	})

	assert.Equal(t, 7, store.Stats().GetList)
}

func TestGetCount(t *testing.T) {
	store := newArticles()
	count, err := store.GetCount(context.Background(), clause.NewFilter(clause.Cond{Op: clause.Eq, Column: "UF_TYPE", Value: "news"}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.GetCount(ctx, clause.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrites(t *testing.T) {
	ctx := context.Background()
	store := newArticles()

	result := store.Add(ctx, map[string]interface{}{"UF_TITLE": "c"})
	require.True(t, result.IsSuccess())
	assert.Equal(t, int64(4), result.ID)

	result = store.Update(ctx, "4", map[string]interface{}{"UF_TITLE": "c++", "ID": "4"})
	require.True(t, result.IsSuccess())
	assert.Equal(t, "c++", store.Rows()[3]["UF_TITLE"])
	assert.Equal(t, int64(4), store.Rows()[3]["ID"], "same key is not rewritten")

	assert.False(t, store.Update(ctx, 42, map[string]interface{}{"UF_TITLE": "x"}).IsSuccess())

	require.True(t, store.Delete(ctx, 4).IsSuccess())
	assert.Len(t, store.Rows(), 3)
	assert.False(t, store.Delete(ctx, 4).IsSuccess())

	store.FailWrites("title is required")
	result = store.Add(ctx, map[string]interface{}{})
	assert.False(t, result.IsSuccess())
	assert.Equal(t, []string{"title is required"}, result.ErrorMessages)

	store.FailWrites()
	assert.True(t, store.Add(ctx, map[string]interface{}{"ID": 10}).IsSuccess())
	assert.Equal(t, int64(11), store.Add(ctx, map[string]interface{}{}).ID)

	stats := store.Stats()
	assert.Equal(t, 4, stats.Add)
	assert.Equal(t, 2, stats.Update)
	assert.Equal(t, 2, stats.Delete)
}

func TestUpdatePrimaryKey(t *testing.T) {
	ctx := context.Background()
	store := newArticles()

	result := store.Update(ctx, 3, map[string]interface{}{"ID": 30, "UF_TITLE": "moved"})
	require.True(t, result.IsSuccess(), result.Error())
	assert.Equal(t, 30, result.ID)

	rows, err := store.GetList(ctx, clause.Parameters{Filter: clause.NewFilter(clause.Cond{Op: clause.Eq, Column: "ID", Value: 30})})
	assert.Equal(t, []interface{}{"moved"}, titles(collect(t, rows, err)))
	assert.False(t, store.Delete(ctx, 3).IsSuccess(), "old key is gone")
	assert.Equal(t, int64(31), store.Add(ctx, map[string]interface{}{"UF_TITLE": "next"}).ID)

	result = store.Update(ctx, 30, map[string]interface{}{"ID": 1})
	assert.False(t, result.IsSuccess())
	assert.Equal(t, "memory: duplicated key 1 in articles", result.Error())
}

func TestRegistry(t *testing.T) {
	articles := newArticles()
	registry := memory.NewRegistry(articles)

	manager, err := registry.Resolve("articles")
	require.NoError(t, err)
	assert.Same(t, articles, manager)

	authors := registry.Table("authors")
	assert.Same(t, authors, registry.Table("authors"))
	assert.Equal(t, "authors", authors.Table())
}
