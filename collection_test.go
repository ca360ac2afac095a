package hlorm_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm"
)

func newAuthors(t *testing.T, f *fixture, names ...string) []*hlorm.Model {
	t.Helper()
	models := make([]*hlorm.Model, len(names))
	for idx, name := range names {
		m, err := f.db.New(Author)
		require.NoError(t, err)
		m.SetRawAttributes(map[string]interface{}{"ID": int64(idx + 1), "UF_NAME": name}, true)
		m.Exists = true
		models[idx] = m
	}
	return models
}

func TestCollectionAccess(t *testing.T) {
	f := newFixture(t)
	models := newAuthors(t, f, "ann", "bob", "cid")

	c := hlorm.NewCollection(models[0], nil, models[1])
	assert.Equal(t, 2, c.Len(), "nil models are skipped")
	assert.Same(t, models[0], c.First())
	assert.Same(t, models[1], c.Last())
	assert.Nil(t, c.Get(5))

	c.Add(models[2]).Add(nil)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, c.ModelKeys())
	assert.Equal(t, []interface{}{"ann", "bob", "cid"}, c.Pluck("name"))

	empty := hlorm.NewCollection()
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.First())
	assert.Nil(t, empty.Last())
}

func TestCollectionContains(t *testing.T) {
	f := newFixture(t)
	models := newAuthors(t, f, "ann", "bob")
	c := hlorm.NewCollection(models...)

	assert.True(t, c.Contains(1))
	assert.True(t, c.Contains("2"))
	assert.False(t, c.Contains(3))
	assert.True(t, c.Contains(models[1]))
	assert.False(t, c.Contains((*hlorm.Model)(nil)))
	assert.True(t, c.Contains(func(m *hlorm.Model) bool { return m.GetAttribute("name") == "bob" }))
	assert.False(t, c.Contains(func(m *hlorm.Model) bool { return m.GetAttribute("name") == "dan" }))
}

func TestCollectionSetOperations(t *testing.T) {
	f := newFixture(t)
	models := newAuthors(t, f, "ann", "bob", "cid")
	replacement := newAuthors(t, f, "anna")[0]

	c := hlorm.NewCollection(models[0], models[1], models[0])
	assert.Equal(t, []interface{}{int64(1), int64(2)}, c.Unique().ModelKeys())

	merged := hlorm.NewCollection(models[0], models[1]).Merge(hlorm.NewCollection(models[2], replacement))
	assert.Equal(t, []interface{}{"anna", "bob", "cid"}, merged.Pluck("name"), "later models replace in place")

	diff := hlorm.NewCollection(models...).Diff(hlorm.NewCollection(models[1]))
	assert.Equal(t, []interface{}{int64(1), int64(3)}, diff.ModelKeys())

	dictionary := hlorm.NewCollection(models...).Dictionary()
	assert.Len(t, dictionary, 3)
	assert.Same(t, models[2], dictionary["3"])
}

func TestCollectionIteration(t *testing.T) {
	f := newFixture(t)
	c := hlorm.NewCollection(newAuthors(t, f, "ann", "bob", "cid")...)

	odd := c.Filter(func(m *hlorm.Model, idx int) bool { return idx%2 == 0 })
	assert.Equal(t, []interface{}{"ann", "cid"}, odd.Pluck("name"))

	var visited []interface{}
	c.Each(func(m *hlorm.Model, idx int) bool {
		visited = append(visited, m.GetAttribute("name"))
		return idx < 1
	})
	assert.Equal(t, []interface{}{"ann", "bob"}, visited)
}

func TestCollectionJSON(t *testing.T) {
	f := newFixture(t)
	c := hlorm.NewCollection(newAuthors(t, f, "ann")...)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"ann"}]`, string(data))
}
