package hlorm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hlblock/hlorm"
	"github.com/hlblock/hlorm/datamanager/memory"
	"github.com/hlblock/hlorm/logger"
	"github.com/hlblock/hlorm/utils"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

const fixedNowString = "15.03.2024 10:30:00"

var (
	Author  = &hlorm.Definition{Name: "Author", Table: "authors"}
	Tag     = &hlorm.Definition{Name: "Tag", Table: "tags"}
	Comment = &hlorm.Definition{Name: "Comment", Table: "comments"}
	Article = &hlorm.Definition{
		Name:       "Article",
		Table:      "articles",
		Timestamps: true,
		Casts:      map[string]string{"sort": "int", "meta": "json", "price": "money", "published": "bool"},
		Dates:      []string{"published_at"},
		Files:      []string{"picture"},
		Hidden:     []string{"secret"},
		Appends:    []string{"slug"},
		Accessors: map[string]hlorm.Accessor{
			"title": {Set: func(m *hlorm.Model, value interface{}) interface{} {
				if s, ok := value.(string); ok {
					return s + "!"
				}
				return value
			}},
			"slug": {Get: func(m *hlorm.Model, _ interface{}) interface{} {
				return "article-" + utils.ToString(m.RawAttribute("code"))
			}},
		},
	}

	Country = &hlorm.Definition{Name: "Country", Table: "countries"}
	User    = &hlorm.Definition{Name: "User", Table: "users"}
	Post    = &hlorm.Definition{Name: "Post", Table: "posts"}
)

func init() {
	Author.Relations = map[string]hlorm.RelationDeclaration{
		"articles": hlorm.HasManyDef{Related: Article, ForeignKey: "author_id"},
		"latest": hlorm.RelationFunc(func(m *hlorm.Model, _ string) (hlorm.Relation, error) {
			latest, err := m.HasOne(Article, "author_id", "")
			if err != nil {
				return nil, err
			}
			latest.Builder().OrderBy("id", "desc")
			return latest, nil
		}),
	}
	Article.Relations = map[string]hlorm.RelationDeclaration{
		"author":   hlorm.BelongsToDef{Related: Author},
		"comments": hlorm.HasManyDef{Related: Comment},
		"tags":     hlorm.BelongsToManyDef{Related: Tag, ForeignKey: "tag_ids"},
	}
	Comment.Relations = map[string]hlorm.RelationDeclaration{
		"article": hlorm.BelongsToDef{Related: Article},
		"author":  hlorm.BelongsToDef{Related: Author},
	}
	Country.Relations = map[string]hlorm.RelationDeclaration{
		"posts": hlorm.HasManyThroughDef{Related: Post, Through: User},
	}
}

type fixture struct {
	db       *hlorm.DB
	registry *memory.Registry
}

func newFixture(t *testing.T, stores ...*memory.Store) *fixture {
	t.Helper()

	registry := memory.NewRegistry(stores...)
	db, err := hlorm.Open(&hlorm.Config{
		Managers: registry.Resolve,
		Logger:   logger.Discard,
		NowFunc:  func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{db: db, registry: registry}
}

func (f *fixture) store(table string) *memory.Store {
	return f.registry.Table(table)
}

func blogStores() []*memory.Store {
	return []*memory.Store{
		memory.New("authors",
			map[string]interface{}{"ID": int64(1), "UF_NAME": "ann"},
			map[string]interface{}{"ID": int64(2), "UF_NAME": "bob"},
			map[string]interface{}{"ID": int64(3), "UF_NAME": "cid"},
		),
		memory.New("articles",
			map[string]interface{}{"ID": int64(1), "UF_TITLE": "go", "UF_SORT": "30", "UF_AUTHOR_ID": int64(1), "UF_TAG_IDS": `[3,1]`, "UF_CODE": "go"},
			map[string]interface{}{"ID": int64(2), "UF_TITLE": "rust", "UF_SORT": "10", "UF_AUTHOR_ID": int64(1), "UF_TAG_IDS": `[2]`, "UF_CODE": "rust"},
			map[string]interface{}{"ID": int64(3), "UF_TITLE": "zig", "UF_SORT": "20", "UF_AUTHOR_ID": int64(2), "UF_CODE": "zig"},
		),
		memory.New("comments",
			map[string]interface{}{"ID": int64(1), "UF_ARTICLE_ID": int64(1), "UF_AUTHOR_ID": int64(2), "UF_TEXT": "nice"},
			map[string]interface{}{"ID": int64(2), "UF_ARTICLE_ID": int64(1), "UF_AUTHOR_ID": int64(3), "UF_TEXT": "meh"},
			map[string]interface{}{"ID": int64(3), "UF_ARTICLE_ID": int64(3), "UF_AUTHOR_ID": int64(1), "UF_TEXT": "wow"},
		),
		memory.New("tags",
			map[string]interface{}{"ID": int64(1), "UF_NAME": "lang"},
			map[string]interface{}{"ID": int64(2), "UF_NAME": "systems"},
			map[string]interface{}{"ID": int64(3), "UF_NAME": "web"},
		),
	}
}
