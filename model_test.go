package hlorm_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm"
)

func TestAttributes(t *testing.T) {
	f := newFixture(t)
	m, err := f.db.Make(Article, map[string]interface{}{
		"title":        "go",
		"UF_SORT":      "7",
		"meta":         map[string]interface{}{"a": 1},
		"published_at": "2024-01-02",
		"price":        1234.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "go!", m.RawAttribute("title"), "set accessor")
	assert.Equal(t, "7", m.RawAttribute("sort"))
	assert.Equal(t, int64(7), m.GetAttribute("sort"), "int cast")
	assert.Equal(t, `{"a":1}`, m.RawAttribute("meta"), "json cast encodes on write")
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, m.GetAttribute("meta"))
	assert.Equal(t, "02.01.2024 00:00:00", m.RawAttribute("published_at"), "dates are stored with the date format")
	publishedAt, ok := m.GetAttribute("published_at").(time.Time)
	require.True(t, ok)
	assert.True(t, publishedAt.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "1 234.50", m.GetAttribute("price"), "money cast")
	assert.Nil(t, m.GetAttribute("missing"))

	attributes := m.Attributes()
	assert.Contains(t, attributes, "UF_TITLE")
	assert.Contains(t, attributes, "UF_PUBLISHED_AT")
	assert.False(t, m.IsDirty())
}

func TestNilIsNeverCast(t *testing.T) {
	f := newFixture(t)
	m, err := f.db.Make(Article, map[string]interface{}{"sort": nil, "published": nil})
	require.NoError(t, err)

	assert.Nil(t, m.GetAttribute("sort"))
	assert.Nil(t, m.GetAttribute("published"))
}

func TestDirtyTracking(t *testing.T) {
	f := newFixture(t)
	m, err := f.db.New(Author)
	require.NoError(t, err)

	require.NoError(t, m.Fill(map[string]interface{}{"name": "ann", "age": 5}))
	assert.True(t, m.IsDirty())
	m.SyncOriginal()
	assert.False(t, m.IsDirty(), "synced model is clean")

	tests := []struct {
		name  string
		key   string
		value interface{}
		dirty bool
	}{
		{"different string", "name", "bob", true},
		{"same string", "name", "ann", false},
		{"numeric string of the same number", "age", "5", false},
		{"float of the same number", "age", 5.0, false},
		{"other number", "age", 6, true},
		{"differently formatted number", "age", "5.0", true},
		{"new attribute", "email", "a@b.c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SyncOriginal()
			require.NoError(t, m.SetAttribute(tt.key, tt.value))
			assert.Equal(t, tt.dirty, m.IsDirty(tt.key))
			assert.Equal(t, tt.dirty, m.IsDirty())

			require.NoError(t, m.SetAttribute(tt.key, m.GetOriginal(tt.key)))
			if tt.key == "email" {
				assert.True(t, m.IsDirty("email"), "attributes missing from original stay dirty")
			}
		})
	}

	m.SyncOriginal()
	require.NoError(t, m.SetAttribute("name", "zoe"))
	assert.Equal(t, map[string]interface{}{"UF_NAME": "zoe"}, m.GetDirty())
	assert.False(t, m.IsDirty("age"))
}

func TestToMap(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	article, err := f.db.Query(Article).WithContext(ctx).With("author", "comments").Find(1)
	require.NoError(t, err)
	require.NotNil(t, article)
	require.NoError(t, article.SetAttribute("secret", "hidden"))
	require.NoError(t, article.SetAttribute("published_at", fixedNow))

	values := article.ToMap()
	assert.Equal(t, int64(1), values["id"])
	assert.Equal(t, "go", values["title"])
	assert.Equal(t, int64(30), values["sort"])
	assert.Equal(t, fixedNowString, values["published_at"])
	assert.Equal(t, "article-go", values["slug"])
	assert.NotContains(t, values, "secret")
	assert.NotContains(t, values, "UF_TITLE")

	author, ok := values["author"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ann", author["name"])

	comments, ok := values["comments"].([]map[string]interface{})
	require.True(t, ok)
	assert.Len(t, comments, 2)

	data, err := json.Marshal(article)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"go"`)
	assert.Contains(t, string(data), `"author":{`)
}

func TestToMapVisible(t *testing.T) {
	def := &hlorm.Definition{Name: "Card", Table: "cards", Visible: []string{"UF_NAME"}}
	f := newFixture(t)

	m, err := f.db.Make(def, map[string]interface{}{"name": "x", "code": "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "x"}, m.ToMap())
}

func TestSaveInsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.db.Make(Article, map[string]interface{}{"title": "go", "code": "go"})
	require.NoError(t, err)

	saved, err := m.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	assert.True(t, m.Exists)
	assert.True(t, m.WasRecentlyCreated)
	assert.Equal(t, int64(1), m.GetKey(), "key is the id returned by the insert")
	assert.Equal(t, fixedNowString, m.RawAttribute(hlorm.CreatedAt))
	assert.Equal(t, m.RawAttribute(hlorm.CreatedAt), m.RawAttribute(hlorm.UpdatedAt))
	assert.False(t, m.IsDirty())

	rows := f.store("articles").Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "go!", rows[0]["UF_TITLE"])
	assert.Equal(t, fixedNowString, rows[0]["UF_CREATED_AT"])
	assert.Equal(t, fixedNowString, rows[0]["UF_UPDATED_AT"])
}

func TestSaveWithoutChanges(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	m, err := f.db.Find(ctx, Article, 1)
	require.NoError(t, err)

	saved, err := m.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 0, f.store("articles").Stats().Update, "clean models are not written")
}

func TestSaveUpdate(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	m, err := f.db.Find(ctx, Article, 2)
	require.NoError(t, err)

	saved, err := m.Update(ctx, map[string]interface{}{"sort": 99})
	require.NoError(t, err)
	assert.True(t, saved)
	assert.False(t, m.WasRecentlyCreated)

	rows := f.store("articles").Rows()
	assert.Equal(t, 99, rows[1]["UF_SORT"])
	assert.Equal(t, fixedNowString, rows[1]["UF_UPDATED_AT"])
	assert.NotContains(t, rows[1], "UF_CREATED_AT", "created at is only stamped on insert")
	assert.Equal(t, 1, f.store("articles").Stats().Update)
}

func TestUpdateNotPersisted(t *testing.T) {
	f := newFixture(t)
	m, err := f.db.New(Author)
	require.NoError(t, err)

	saved, err := m.Update(context.Background(), map[string]interface{}{"name": "x"})
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, 0, f.store("authors").Stats().Update)
}

func TestSaveRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store("authors").FailWrites("name is required")

	m, err := f.db.Make(Author, map[string]interface{}{"age": 3})
	require.NoError(t, err)

	saved, err := m.Save(ctx)
	require.NoError(t, err, "refused writes are not errors")
	assert.False(t, saved)
	assert.False(t, m.Exists)
	assert.Equal(t, []string{"name is required"}, m.Errors())
	assert.ErrorIs(t, m.Err(), hlorm.ErrPersistence)

	_, err = f.db.Create(ctx, Author, map[string]interface{}{"age": 3})
	assert.ErrorIs(t, err, hlorm.ErrPersistence)
}

func TestSaveWithChangedKey(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	m, err := f.db.Find(ctx, Author, 2)
	require.NoError(t, err)
	require.NoError(t, m.SetAttribute("name", "bobby"))
	require.NoError(t, m.SetAttribute("id", 20))

	saved, err := m.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, "bobby", f.store("authors").Rows()[1]["UF_NAME"], "the row of the original key is updated")
}

func TestDelete(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	m, err := f.db.Find(ctx, Author, 3)
	require.NoError(t, err)

	deleted, err := m.Delete(ctx)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, m.Exists)
	assert.Len(t, f.store("authors").Rows(), 2)

	deleted, err = m.Delete(ctx)
	require.NoError(t, err)
	assert.False(t, deleted, "not persisted models are not deleted")

	_, err = (&hlorm.Model{}).Delete(ctx)
	assert.ErrorIs(t, err, hlorm.ErrMissingKeyName)
}

func TestDestroy(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	count, err := f.db.Destroy(ctx, Author, []int{1, 3, 42})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, f.store("authors").Rows(), 1)

	count, err = f.db.Destroy(ctx, Author)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFresh(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	m, err := f.db.Find(ctx, Author, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetAttribute("name", "changed"))

	fresh, err := m.Fresh(ctx)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "ann", fresh.GetAttribute("name"))
	assert.Equal(t, "changed", m.GetAttribute("name"))

	unsaved, err := f.db.New(Author)
	require.NoError(t, err)
	fresh, err = unsaved.Fresh(ctx)
	require.NoError(t, err)
	assert.Nil(t, fresh)
}

func TestReplicate(t *testing.T) {
	f := newFixture(t, blogStores()...)
	ctx := context.Background()

	m, err := f.db.Query(Article).WithContext(ctx).With("author").Find(1)
	require.NoError(t, err)
	require.NoError(t, m.SetAttribute(hlorm.CreatedAt, fixedNow))

	clone := m.Replicate("code")
	assert.False(t, clone.Exists)
	assert.Nil(t, clone.GetKey())
	assert.Nil(t, clone.RawAttribute("code"))
	assert.Nil(t, clone.RawAttribute(hlorm.CreatedAt))
	assert.Equal(t, "go", clone.RawAttribute("title"))
	assert.True(t, clone.RelationLoaded("author"))
	assert.Empty(t, clone.Original())
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.db.Create(ctx, Author, map[string]interface{}{"name": "ann"})
	require.NoError(t, err)
	assert.True(t, m.Exists)

	all, err := f.db.All(ctx, Author)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ann"}, all.Pluck("name"))
}

func TestDefinitionErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.db.New(&hlorm.Definition{Name: "Nameless"})
	assert.ErrorIs(t, err, hlorm.ErrMissingTable)

	_, err = f.db.New(&hlorm.Definition{Table: "x", Accessors: map[string]hlorm.Accessor{"a": {}}})
	assert.ErrorIs(t, err, hlorm.ErrInvalidArgument)

	_, err = hlorm.Open(&hlorm.Config{})
	assert.ErrorIs(t, err, hlorm.ErrMissingDataManager)
}

func TestSchemaCache(t *testing.T) {
	f := newFixture(t)

	s1, err := f.db.Schema(Article)
	require.NoError(t, err)
	s2, err := f.db.Schema(Article)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, "ID", s1.PrimaryKey)
	assert.Equal(t, "UF_CREATED_AT", s1.CreatedAt)
	assert.Equal(t, "int", s1.CastType("ID"))
	assert.True(t, s1.IsDate("UF_PUBLISHED_AT"))
	assert.True(t, s1.IsFile("UF_PICTURE"))
	assert.Equal(t, "article_id", s1.ForeignKey())
}
