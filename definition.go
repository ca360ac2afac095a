package hlorm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hlblock/hlorm/schema"
)

const (
	// DefaultPrimaryKey primary key of definitions without their own
	DefaultPrimaryKey = "id"
	// DefaultKeyType cast of incrementing primary keys
	DefaultKeyType = "int"
	// DefaultUploadFolder folder prepended to file paths
	DefaultUploadFolder = "/upload/"
	// CreatedAt logical name of the creation timestamp
	CreatedAt = "created_at"
	// UpdatedAt logical name of the update timestamp
	UpdatedAt = "updated_at"
)

// Accessor computed attribute, Get transforms the stored value on read, Set returns the value to store
type Accessor struct {
	Get func(m *Model, value interface{}) interface{}
	Set func(m *Model, value interface{}) interface{}
}

// Definition declares a model of a highload block table
type Definition struct {
	Name            string
	Table           string
	PrimaryKey      string
	KeyType         string
	NonIncrementing bool
	Prefix          string
	WithoutPrefix   []string
	Timestamps      bool
	Casts           map[string]string
	Dates           []string
	Files           []string
	DateFormat      string
	UploadFolder    string
	Money           *schema.MoneyFormat
	Hidden          []string
	Visible         []string
	Appends         []string
	Accessors       map[string]Accessor
	Relations       map[string]RelationDeclaration
	// Preload relations loaded by every query of the model
	Preload []string
	// Manager table passed to the manager resolver instead of Table
	Manager string
}

// Schema parsed definition, keys are normalized column names unless stated otherwise
type Schema struct {
	Definition   *Definition
	Name         string
	Table        string
	Manager      string
	PrimaryKey   string
	KeyType      string
	Incrementing bool
	Timestamps   bool
	CreatedAt    string
	UpdatedAt    string
	DateFormat   string
	UploadFolder string
	Money        schema.MoneyFormat
	Namer        schema.NamingStrategy
	Casts        map[string]string
	Dates        map[string]bool
	Files        []string
	Accessors    map[string]Accessor
	Relations    map[string]RelationDeclaration
	Preload      []string
	// Hidden, Visible and Appends hold logical keys
	Hidden  []string
	Visible []string
	Appends []string
}

// Parse definition into schema, schemas are cached per definition in cacheStore
func Parse(def *Definition, cacheStore *sync.Map, config *Config) (*Schema, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidArgument)
	}

	if v, ok := cacheStore.Load(def); ok {
		s, isSchema := v.(*Schema)
		if isSchema {
			return s, nil
		}
	}

	if config == nil {
		config = &Config{}
	}

	s := &Schema{
		Definition:   def,
		Name:         def.Name,
		Table:        def.Table,
		Manager:      def.Manager,
		KeyType:      strings.ToLower(strings.TrimSpace(def.KeyType)),
		Incrementing: !def.NonIncrementing,
		Timestamps:   def.Timestamps,
		DateFormat:   firstNonEmpty(def.DateFormat, config.DateFormat, schema.DefaultDateFormat),
		UploadFolder: firstNonEmpty(def.UploadFolder, config.UploadFolder, DefaultUploadFolder),
		Money:        schema.DefaultMoneyFormat,
		Casts:        map[string]string{},
		Dates:        map[string]bool{},
		Accessors:    map[string]Accessor{},
		Relations:    map[string]RelationDeclaration{},
		Preload:      def.Preload,
	}

	if s.Table == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, def.Name)
	}
	if s.Name == "" {
		s.Name = s.Table
	}
	if s.Manager == "" {
		s.Manager = s.Table
	}
	if s.KeyType == "" {
		s.KeyType = DefaultKeyType
	}
	if def.Money != nil {
		s.Money = *def.Money
	}

	primaryKey := firstNonEmpty(def.PrimaryKey, DefaultPrimaryKey)
	s.Namer = schema.NamingStrategy{
		Prefix:        firstNonEmpty(def.Prefix, config.DefaultPrefix, schema.DefaultPrefix),
		WithoutPrefix: def.WithoutPrefix,
	}.WithExempt(primaryKey)
	s.PrimaryKey = s.Namer.NormalizeKey(primaryKey)
	s.CreatedAt = s.Namer.NormalizeKey(CreatedAt)
	s.UpdatedAt = s.Namer.NormalizeKey(UpdatedAt)

	if s.Incrementing {
		s.Casts[s.PrimaryKey] = s.KeyType
	}
	for key, cast := range def.Casts {
		s.Casts[s.Namer.NormalizeKey(key)] = strings.ToLower(strings.TrimSpace(cast))
	}

	s.Dates[s.CreatedAt] = true
	s.Dates[s.UpdatedAt] = true
	for _, key := range def.Dates {
		s.Dates[s.Namer.NormalizeKey(key)] = true
	}

	for _, key := range def.Files {
		column := s.Namer.NormalizeKey(key)
		if !s.IsFile(column) {
			s.Files = append(s.Files, column)
		}
	}

	for key, accessor := range def.Accessors {
		if accessor.Get == nil && accessor.Set == nil {
			return nil, fmt.Errorf("%w: accessor %s of %s has neither Get nor Set", ErrInvalidArgument, key, s.Name)
		}
		s.Accessors[s.Namer.NormalizeKey(key)] = accessor
	}

	for name, relation := range def.Relations {
		if relation == nil {
			return nil, fmt.Errorf("%w: relation %s of %s is nil", ErrInvalidArgument, name, s.Name)
		}
		s.Relations[name] = relation
	}

	s.Hidden = s.LogicalKeys(def.Hidden)
	s.Visible = s.LogicalKeys(def.Visible)
	s.Appends = s.LogicalKeys(def.Appends)

	if v, loaded := cacheStore.LoadOrStore(def, s); loaded {
		if cached, ok := v.(*Schema); ok {
			return cached, nil
		}
		return nil, errors.New("hlorm: unexpected value in schema cache")
	}
	return s, nil
}

// LogicalKey canonical logical form of a key, eg: UF_TITLE => title
func (s *Schema) LogicalKey(key string) string {
	return s.Namer.DenormalizeKey(s.Namer.NormalizeKey(key))
}

// LogicalKeys canonical logical form of keys
func (s *Schema) LogicalKeys(keys []string) []string {
	results := make([]string, 0, len(keys))
	for _, key := range keys {
		results = append(results, s.LogicalKey(key))
	}
	return results
}

// CastType cast of a column, empty when not cast
func (s *Schema) CastType(column string) string {
	return s.Casts[column]
}

// IsDate whether column is a declared date or cast as date
func (s *Schema) IsDate(column string) bool {
	return s.Dates[column] || schema.IsDateCast(s.Casts[column])
}

// IsFile whether column holds file ids
func (s *Schema) IsFile(column string) bool {
	for _, file := range s.Files {
		if file == column {
			return true
		}
	}
	return false
}

// CastOptions formatting options passed to casters
func (s *Schema) CastOptions() schema.CastOptions {
	return schema.CastOptions{DateFormat: s.DateFormat, Money: s.Money}
}

// ForeignKey column referencing this model from other tables, eg: article_id
func (s *Schema) ForeignKey() string {
	return s.Namer.ForeignKey(s.Name)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
