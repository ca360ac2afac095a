package hlorm_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm"
	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/logger"
)

func titles(t *testing.T, results *hlorm.Collection) []interface{} {
	t.Helper()
	require.NotNil(t, results)
	return results.Pluck("title")
}

func TestWhereCompilesFilter(t *testing.T) {
	f := newFixture(t)

	b := f.db.Query(Author).Where("a", 5).Where("b", ">", 10)
	require.NoError(t, b.Error)
	assert.Equal(t, map[string]interface{}{"UF_A": 5, ">UF_B": 10}, b.Filter().Map())

	b.Where("a", 6)
	assert.Equal(t, map[string]interface{}{"UF_A": 6, ">UF_B": 10}, b.Filter().Map(), "same key is replaced")

	b = f.db.Query(Author).Where("id", []int{1, 2}).Where("name", "!=", "bob")
	assert.Equal(t, map[string]interface{}{"ID": []interface{}{1, 2}, "!UF_NAME": "bob"}, b.Filter().Map())

	b = f.db.Query(Author).Where(map[string]interface{}{"~name": "an", ">=age": 3})
	require.NoError(t, b.Error)
	assert.Equal(t, []clause.Cond{
		{Op: clause.Gte, Column: "UF_AGE", Value: 3},
		{Op: clause.Like, Column: "UF_NAME", Value: "an"},
	}, b.Filter().Conds(), "map keys are applied in sorted order")

	b = f.db.Query(Author).Where("deleted", nil)
	require.NoError(t, b.Error, "nil value with the default operator")
	assert.Equal(t, map[string]interface{}{"UF_DELETED": nil}, b.Filter().Map())
}

func TestOrWhereGroups(t *testing.T) {
	f := newFixture(t)

	b := f.db.Query(Author).Where("a", 5).Where("b", ">", 10).OrWhere("c", 1).OrWhere("d", "!", 2)
	require.NoError(t, b.Error)
	assert.Equal(t, map[string]interface{}{
		"UF_A":  5,
		">UF_B": 10,
		"2": map[string]interface{}{
			"LOGIC": "OR",
			"0":     map[string]interface{}{"UF_C": 1},
			"1":     map[string]interface{}{"!UF_D": 2},
		},
	}, b.Filter().Map())

	b = f.db.Query(Author).WhereGroup("and", "a", 1)
	require.NoError(t, b.Error)
	assert.Len(t, b.Filter().Groups(), 1)
	assert.Equal(t, clause.AND, b.Filter().Groups()[0].Logic)
}

func TestWhereInvalidArguments(t *testing.T) {
	f := newFixture(t, blogStores()...)

	tests := []struct {
		name  string
		build func(b *hlorm.Builder) *hlorm.Builder
	}{
		{"unknown operator", func(b *hlorm.Builder) *hlorm.Builder { return b.Where("a", "??", 1) }},
		{"operator that is not a string", func(b *hlorm.Builder) *hlorm.Builder { return b.Where("a", 1, 2) }},
		{"too many arguments", func(b *hlorm.Builder) *hlorm.Builder { return b.Where("a", "=", 1, 2) }},
		{"nil value with an operator", func(b *hlorm.Builder) *hlorm.Builder { return b.Where("a", ">", nil) }},
		{"unsupported column type", func(b *hlorm.Builder) *hlorm.Builder { return b.Where(5) }},
		{"map with arguments", func(b *hlorm.Builder) *hlorm.Builder {
			return b.Where(map[string]interface{}{"a": 1}, 2)
		}},
		{"unknown logic", func(b *hlorm.Builder) *hlorm.Builder { return b.WhereGroup("XOR", "a", 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(f.db.Query(Author))
			assert.ErrorIs(t, b.Error, hlorm.ErrInvalidArgument)
			assert.Equal(t, 0, b.Filter().Len())

			_, err := b.Get()
			assert.ErrorIs(t, err, hlorm.ErrInvalidArgument, "finishers surface the error")
		})
	}
	assert.Equal(t, 0, f.store("authors").Stats().GetList)
}

func TestBuilderParameters(t *testing.T) {
	f := newFixture(t)

	b := f.db.Query(Article).
		Select("title", "id").
		AddSelect("sort").
		OrderBy("sort", "DESC").
		OrderBy("id").
		OrderBy("sort", "asc").
		GroupBy("author_id").
		ForPage(3, 0)

	params := b.Parameters()
	assert.Equal(t, []string{"UF_TITLE", "ID", "UF_SORT"}, params.Select)
	assert.Equal(t, []clause.OrderByColumn{{Column: "UF_SORT"}, {Column: "ID"}}, params.Order)
	assert.Equal(t, []string{"UF_AUTHOR_ID"}, params.Group)
	assert.Equal(t, 30, params.Offset)
	assert.Equal(t, hlorm.DefaultPerPage, params.Limit)

	b.Limit(0).Offset(-1)
	assert.Equal(t, 30, b.Parameters().Offset, "negative offsets are ignored")
	assert.Equal(t, hlorm.DefaultPerPage, b.Parameters().Limit, "non positive limits are ignored")

	b.ForPage(0, 10)
	assert.Equal(t, 0, b.Parameters().Offset)
	assert.Equal(t, 10, b.Parameters().Limit)

	latest := f.db.Query(Article).Latest().Parameters()
	assert.Equal(t, []clause.OrderByColumn{{Column: "UF_CREATED_AT", Desc: true}}, latest.Order)
	oldest := f.db.Query(Article).Oldest("sort").Parameters()
	assert.Equal(t, []clause.OrderByColumn{{Column: "UF_SORT"}}, oldest.Order)
}

func TestParametersAreCachedUntilChanged(t *testing.T) {
	f := newFixture(t)

	b := f.db.Query(Author).Where("name", "ann")
	first := b.Parameters()
	assert.Equal(t, first, b.Parameters())

	b.Where("age", ">", 3)
	second := b.Parameters()
	assert.Equal(t, 1, first.Filter.Len(), "returned parameters are not changed afterwards")
	assert.Equal(t, 2, second.Filter.Len())
	assert.Equal(t, map[string]interface{}{
		"filter": map[string]interface{}{"UF_NAME": "ann", ">UF_AGE": 3},
	}, second.Map())
}

func TestGet(t *testing.T) {
	f := newFixture(t, blogStores()...)

	results, err := f.db.Query(Article).Where("sort", ">", 15).OrderBy("sort").Get()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"zig", "go"}, titles(t, results))
	for _, m := range results.Items() {
		assert.True(t, m.Exists)
		assert.False(t, m.IsDirty())
	}

	results, err = f.db.Query(Article).OrWhere("title", "go").OrWhere("title", "zig").OrderBy("id", "desc").Get()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"zig", "go"}, titles(t, results))

	results, err = f.db.Query(Article).Where("id", []int{}).Get()
	require.NoError(t, err)
	assert.True(t, results.IsEmpty(), "empty list matches nothing")

	results, err = f.db.Query(Article).OrderBy("id").Get("title")
	require.NoError(t, err)
	require.Equal(t, 3, results.Len())
	assert.Equal(t, map[string]interface{}{"UF_TITLE": "go"}, results.First().Attributes(), "columns select for this call")

	all, err := f.db.All(context.Background(), Article)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())
}

func TestFirstAndFind(t *testing.T) {
	f := newFixture(t, blogStores()...)

	m, err := f.db.Query(Author).Where("name", "bob").First()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(2), m.GetKey())

	m, err = f.db.Query(Author).Where("name", "dan").First()
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = f.db.Find(context.Background(), Author, 3)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "cid", m.GetAttribute("name"))

	m, err = f.db.Query(Author).Find([]int{3, 1})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.GetKey(), "a list finds the first stored match")

	_, err = f.db.Query(Author).Where("name", "dan").FirstOrFail()
	var notFound *hlorm.ModelNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "Author", notFound.Model)
	assert.True(t, hlorm.IsNotFound(err))

	_, err = f.db.Query(Author).FindOrFail(42)
	assert.True(t, hlorm.IsNotFound(err))
	assert.EqualError(t, err, "no query results for model [Author] [42]")

	m, err = f.db.Query(Author).FindOrFail("2")
	require.NoError(t, err)
	assert.Equal(t, "bob", m.GetAttribute("name"))
}

func TestFindManyWithoutKeys(t *testing.T) {
	f := newFixture(t, blogStores()...)

	results, err := f.db.Query(Author).FindMany(nil)
	require.NoError(t, err)
	assert.True(t, results.IsEmpty())

	m, err := f.db.Query(Author).Find([]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, m)

	assert.Equal(t, 0, f.store("authors").Stats().GetList, "no data manager call for empty keys")

	results, err = f.db.Query(Author).FindMany([]interface{}{1, 3, 9})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ann", "cid"}, results.Pluck("name"))
}

func TestCountAndExists(t *testing.T) {
	f := newFixture(t, blogStores()...)

	count, err := f.db.Query(Article).Where("author_id", 1).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	exists, err := f.db.Query(Article).Where("author_id", 3).Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = f.db.Query(Article).Where("title", "=%", "ru").Exists()
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 3, f.store("articles").Stats().GetCount, "one count per finisher")
}

func TestChunk(t *testing.T) {
	f := newFixture(t, blogStores()...)

	var pages [][]interface{}
	completed, err := f.db.Query(Article).OrderBy("id").Chunk(2, func(results *hlorm.Collection) bool {
		pages = append(pages, results.ModelKeys())
		return true
	})
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, [][]interface{}{{int64(1), int64(2)}, {int64(3)}}, pages)

	calls := 0
	completed, err = f.db.Query(Article).OrderBy("id").Chunk(2, func(results *hlorm.Collection) bool {
		calls++
		return false
	})
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 1, calls)

	completed, err = f.db.Query(Article).Where("author_id", 9).Chunk(2, func(results *hlorm.Collection) bool {
		t.Fatal("no page expected")
		return true
	})
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestBuilderWrites(t *testing.T) {
	f := newFixture(t, blogStores()...)
	authors := f.store("authors")

	id, ok := f.db.Query(Author).Insert(map[string]interface{}{"name": "dan"})
	require.True(t, ok)
	assert.Equal(t, int64(4), id)

	id, ok = f.db.Query(Author).Insert(nil)
	assert.True(t, ok)
	assert.Nil(t, id)
	assert.Equal(t, 1, authors.Stats().Add, "empty values are not written")

	assert.True(t, f.db.Query(Author).SetModelPrimary(1).Update(map[string]interface{}{"name": "ann b"}))
	assert.Equal(t, "ann b", authors.Rows()[0]["UF_NAME"])

	b := f.db.Query(Author)
	assert.False(t, b.Update(map[string]interface{}{"name": "x"}))
	assert.ErrorIs(t, b.Error, hlorm.ErrInvalidArgument)

	assert.True(t, f.db.Query(Author).Delete(2))
	b = f.db.Query(Author)
	assert.False(t, b.Delete(99))
	assert.Equal(t, []string{"record not found: authors 99"}, b.Errors())
	assert.NoError(t, b.Error, "refused writes are reported as messages")
	assert.Len(t, authors.Rows(), 3)

	assert.True(t, f.db.Query(Article).SetModelPrimary(3).Update(map[string]interface{}{"sort": 5}))
	row := f.store("articles").Rows()[2]
	assert.Equal(t, 5, row["UF_SORT"])
	assert.Equal(t, fixedNowString, row["UF_UPDATED_AT"], "update timestamp is added")
}

func TestCreateFileWithoutLoader(t *testing.T) {
	f := newFixture(t, blogStores()...)
	b := f.db.Query(Article)

	for _, value := range []interface{}{nil, "", 5, "12"} {
		id, err := b.CreateFile(value)
		require.NoError(t, err)
		assert.Equal(t, value, id)
	}

	_, err := b.CreateFile(map[string]interface{}{"name": "a.png"})
	assert.ErrorIs(t, err, hlorm.ErrMissingFileLoader)
}

func TestMissingDataManager(t *testing.T) {
	_, err := hlorm.Open(&hlorm.Config{})
	assert.ErrorIs(t, err, hlorm.ErrMissingDataManager)

	db, err := hlorm.Open(&hlorm.Config{
		Managers: func(table string) (hlorm.DataManager, error) { return nil, errors.New("offline") },
		Logger:   logger.Discard,
	})
	require.NoError(t, err)

	_, err = db.Query(Author).Get()
	assert.ErrorIs(t, err, hlorm.ErrMissingDataManager)
}

func TestBuilderTrace(t *testing.T) {
	f := newFixture(t, blogStores()...)

	var buf bytes.Buffer
	f.db.Logger = logger.New(log.New(&buf, "", 0), logger.Config{LogLevel: logger.Info})

	_, err := f.db.Query(Article).Where("author_id", 1).OrderBy("id", "desc").Limit(2).Get()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[articles.getList]")
	assert.Contains(t, buf.String(), "[rows:2] filter={UF_AUTHOR_ID: 1} order=ID DESC limit=2")

	buf.Reset()
	f.db.Query(Author).Delete(99)
	assert.Contains(t, buf.String(), "[authors.delete]")
	assert.Contains(t, buf.String(), "[rows:0] id=99")
	assert.Contains(t, buf.String(), "record not found")
}

func TestBuilderStructuredTrace(t *testing.T) {
	f := newFixture(t, blogStores()...)

	var buf bytes.Buffer
	f.db.Logger = logger.NewZerologLoggerWithConfig(logger.Config{LogLevel: logger.Info}, &buf)

	_, err := f.db.Query(Article).Select("title").Where("author_id", 1).Get()
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, logger.CallMessage, entry["message"])
	assert.Equal(t, "getList", entry["operation"])
	assert.Equal(t, "articles", entry["table"])
	assert.Equal(t, map[string]interface{}{"UF_AUTHOR_ID": float64(1)}, entry["filter"])
	assert.Contains(t, entry["select"], "UF_TITLE")
	assert.Equal(t, float64(2), entry["rows"])
}
