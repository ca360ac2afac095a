package hlorm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hlblock/hlorm/utils"
)

// Model a row of a highload block table, attributes are keyed by normalized column names
type Model struct {
	Schema *Schema
	// Exists whether the model is persisted
	Exists bool
	// WasRecentlyCreated whether the last save inserted the model
	WasRecentlyCreated bool

	db            *DB
	attributes    map[string]interface{}
	original      map[string]interface{}
	relations     map[string]interface{}
	files         map[string]string
	originalFiles map[string]string
	errors        []string
}

func newModel(db *DB, s *Schema) *Model {
	return &Model{
		Schema:        s,
		db:            db,
		attributes:    map[string]interface{}{},
		original:      map[string]interface{}{},
		relations:     map[string]interface{}{},
		files:         map[string]string{},
		originalFiles: map[string]string{},
	}
}

// NewInstance new model of the same schema filled with attributes
func (m *Model) NewInstance(attributes map[string]interface{}, exists bool) (*Model, error) {
	instance := newModel(m.db, m.Schema)
	if err := instance.Fill(attributes); err != nil {
		return nil, err
	}
	instance.SyncOriginal()
	instance.Exists = exists
	return instance, nil
}

// newFromBuilder hydrate a host row, attributes are set as is and synced
func (m *Model) newFromBuilder(row map[string]interface{}) *Model {
	instance := newModel(m.db, m.Schema)
	for key, value := range row {
		instance.attributes[key] = value
	}
	instance.Exists = true
	instance.SyncOriginal()
	return instance
}

// DB db of the model
func (m *Model) DB() *DB {
	return m.db
}

// NewBuilder query builder bound to the model
func (m *Model) NewBuilder() *Builder {
	b := &Builder{db: m.db, model: m, ctx: context.Background()}
	if m.db == nil || m.Schema == nil {
		b.AddError(ErrMissingDataManager)
		return b
	}

	if m.db.Managers == nil {
		b.AddError(ErrMissingDataManager)
	} else if manager, err := m.db.Managers(m.Schema.Manager); err != nil {
		b.AddError(fmt.Errorf("%w: %v", ErrMissingDataManager, err))
	} else {
		b.manager = manager
	}
	b.fileLoader = m.db.FileLoader

	for _, name := range m.Schema.Preload {
		b.addPreload(name)
	}
	return b
}

// Query alias of NewBuilder
func (m *Model) Query() *Builder {
	return m.NewBuilder()
}

// GetKeyName normalized primary key name, eg: ID
func (m *Model) GetKeyName() string {
	if m.Schema == nil {
		return ""
	}
	return m.Schema.PrimaryKey
}

// GetKey primary key value
func (m *Model) GetKey() interface{} {
	if m.Schema == nil {
		return nil
	}
	return m.GetAttribute(m.GetKeyName())
}

// GetForeignKey column referencing this model from other tables, eg: UF_ARTICLE_ID
func (m *Model) GetForeignKey() string {
	return m.Schema.Namer.NormalizeKey(m.Schema.ForeignKey())
}

// NormalizeKey column name of a logical key
func (m *Model) NormalizeKey(key string) string {
	return m.Schema.Namer.NormalizeKey(key)
}

// DenormalizeKey logical key of a column name
func (m *Model) DenormalizeKey(key string) string {
	return m.Schema.Namer.DenormalizeKey(key)
}

// Errors error messages of the last failed save or delete
func (m *Model) Errors() []string {
	return m.errors
}

// Err error of the last failed save or delete, wraps ErrPersistence
func (m *Model) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPersistence, strings.Join(m.errors, "; "))
}

// Relation build relation scoped to the model
func (m *Model) Relation(name string) (Relation, error) {
	return m.newRelation(name, Constrained)
}

func (m *Model) newRelation(name string, mode ConstraintMode) (Relation, error) {
	declaration, ok := m.Schema.Relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotRelation, m.Schema.Name, name)
	}

	relation, err := declaration.Relation(m, name)
	if err != nil {
		return nil, err
	}
	if relation == nil {
		return nil, fmt.Errorf("%w: %s.%s built no relation", ErrNotRelation, m.Schema.Name, name)
	}

	if mode == Constrained {
		relation.AddConstraints()
	}
	return relation, nil
}

// GetRelationValue loaded relation value, the relation is resolved and cached on first access
func (m *Model) GetRelationValue(ctx context.Context, name string) (interface{}, error) {
	if m.RelationLoaded(name) {
		return m.relations[name], nil
	}

	relation, err := m.Relation(name)
	if err != nil {
		return nil, err
	}

	results, err := relation.GetResults(ctx)
	if err != nil {
		return nil, err
	}
	m.SetRelation(name, results)
	return results, nil
}

// One to-one relation value, nil when no related model
func (m *Model) One(ctx context.Context, name string) (*Model, error) {
	value, err := m.GetRelationValue(ctx, name)
	if err != nil || value == nil {
		return nil, err
	}

	related, ok := value.(*Model)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %T", ErrInvalidArgument, name, value)
	}
	return related, nil
}

// Many to-many relation value, never nil
func (m *Model) Many(ctx context.Context, name string) (*Collection, error) {
	value, err := m.GetRelationValue(ctx, name)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return NewCollection(), nil
	}

	related, ok := value.(*Collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %T", ErrInvalidArgument, name, value)
	}
	return related, nil
}

// SetRelation set loaded relation value, value is nil, *Model or *Collection
func (m *Model) SetRelation(name string, value interface{}) *Model {
	switch v := value.(type) {
	case *Model:
		if v == nil {
			value = nil
		}
	case *Collection:
		if v == nil {
			value = NewCollection()
		}
	}
	m.relations[name] = value
	return m
}

// SetRelations replace loaded relations
func (m *Model) SetRelations(relations map[string]interface{}) *Model {
	m.relations = map[string]interface{}{}
	for name, value := range relations {
		m.SetRelation(name, value)
	}
	return m
}

// RelationLoaded whether the relation was loaded
func (m *Model) RelationLoaded(name string) bool {
	_, ok := m.relations[name]
	return ok
}

// Relations loaded relations
func (m *Model) Relations() map[string]interface{} {
	relations := make(map[string]interface{}, len(m.relations))
	for name, value := range m.relations {
		relations[name] = value
	}
	return relations
}

// Files resolved file paths keyed by logical file field
func (m *Model) Files() map[string]string {
	files := make(map[string]string, len(m.files))
	for key, path := range m.files {
		files[key] = path
	}
	return files
}

// SetFile set resolved path of a file field
func (m *Model) SetFile(key, path string) *Model {
	m.files[m.Schema.LogicalKey(key)] = path
	return m
}

// setFiles set resolved paths loaded from the file loader
func (m *Model) setFiles(files map[string]string) {
	m.files = files
	m.originalFiles = make(map[string]string, len(files))
	for key, path := range files {
		m.originalFiles[key] = path
	}
}

func (m *Model) resyncFiles() {
	m.files = make(map[string]string, len(m.originalFiles))
	for key, path := range m.originalFiles {
		m.files[key] = path
	}
}

func (m *Model) hasFile(column string) bool {
	return m.files[m.Schema.Namer.DenormalizeKey(column)] != ""
}

// GetFileID stored file id of a file field
func (m *Model) GetFileID(key string) interface{} {
	return m.RawAttribute(key)
}

func (m *Model) String() string {
	return fmt.Sprintf("%s(%v)", m.Schema.Name, utils.ToString(m.GetKey()))
}
