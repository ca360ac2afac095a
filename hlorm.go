package hlorm

import (
	"context"
	"sync"
	"time"

	"github.com/hlblock/hlorm/logger"
	"github.com/hlblock/hlorm/schema"
	"github.com/hlblock/hlorm/utils"
)

// Config hlorm config
type Config struct {
	// Logger traces data manager calls
	Logger logger.Interface
	// NowFunc the function to be used when creating a new timestamp
	NowFunc func() time.Time
	// Managers resolves the data manager of a table
	Managers ManagerResolver
	// FileLoader persists and lists files of file fields
	FileLoader FileLoader
	// DefaultPrefix prefix of columns for definitions without their own, uf_ by default
	DefaultPrefix string
	// DateFormat layout of stored dates for definitions without their own
	DateFormat string
	// UploadFolder folder prepended to file paths for definitions without their own
	UploadFolder string

	cacheStore *sync.Map
}

// DB entry point binding model definitions to data managers
type DB struct {
	*Config
}

// Open initialize db with the config
func Open(config *Config) (db *DB, err error) {
	if config == nil {
		config = &Config{}
	}

	if config.Managers == nil {
		return nil, ErrMissingDataManager
	}

	if config.Logger == nil {
		config.Logger = logger.Default
	}

	if config.NowFunc == nil {
		config.NowFunc = func() time.Time { return time.Now().Local() }
	}

	if config.DefaultPrefix == "" {
		config.DefaultPrefix = schema.DefaultPrefix
	}

	if config.DateFormat == "" {
		config.DateFormat = schema.DefaultDateFormat
	}

	if config.UploadFolder == "" {
		config.UploadFolder = DefaultUploadFolder
	}

	if config.cacheStore == nil {
		config.cacheStore = &sync.Map{}
	}

	return &DB{Config: config}, nil
}

// Schema parsed definition, cached per definition
func (db *DB) Schema(def *Definition) (*Schema, error) {
	return Parse(def, db.cacheStore, db.Config)
}

// New empty model of the definition
func (db *DB) New(def *Definition) (*Model, error) {
	s, err := db.Schema(def)
	if err != nil {
		return nil, err
	}
	return newModel(db, s), nil
}

// Make new model filled with attributes, not persisted
func (db *DB) Make(def *Definition, attributes map[string]interface{}) (*Model, error) {
	m, err := db.New(def)
	if err != nil {
		return nil, err
	}
	if err := m.Fill(attributes); err != nil {
		return nil, err
	}
	m.SyncOriginal()
	return m, nil
}

// Query builder of the definition
func (db *DB) Query(def *Definition) *Builder {
	m, err := db.New(def)
	if err != nil {
		b := &Builder{db: db, ctx: context.Background()}
		b.AddError(err)
		return b
	}
	return m.NewBuilder()
}

// Create make model with attributes and save it
func (db *DB) Create(ctx context.Context, def *Definition, attributes map[string]interface{}) (*Model, error) {
	m, err := db.Make(def, attributes)
	if err != nil {
		return nil, err
	}

	saved, err := m.Save(ctx)
	if err != nil {
		return m, err
	}
	if !saved {
		return m, m.Err()
	}
	return m, nil
}

// All every model of the definition
func (db *DB) All(ctx context.Context, def *Definition, columns ...string) (*Collection, error) {
	return db.Query(def).WithContext(ctx).Get(columns...)
}

// Find model by primary key, nil when absent
func (db *DB) Find(ctx context.Context, def *Definition, id interface{}) (*Model, error) {
	return db.Query(def).WithContext(ctx).Find(id)
}

// Destroy delete models by primary keys one by one, returns the count of deleted models
func (db *DB) Destroy(ctx context.Context, def *Definition, ids ...interface{}) (int, error) {
	if len(ids) == 1 {
		ids = utils.ToSlice(ids[0])
	}
	if len(ids) == 0 {
		return 0, nil
	}

	models, err := db.Query(def).WithContext(ctx).FindMany(ids)
	if err != nil {
		return 0, err
	}

	var count int
	for _, m := range models.Items() {
		deleted, err := m.Delete(ctx)
		if err != nil {
			return count, err
		}
		if deleted {
			count++
		}
	}
	return count, nil
}
