package hlorm

import (
	"context"

	"github.com/hlblock/hlorm/datamanager"
)

type (
	// DataManager executes list, count and write operations of a table
	DataManager = datamanager.Manager
	// FileLoader persists uploaded files and lists file records
	FileLoader = datamanager.FileLoader
	// ManagerResolver resolves the data manager of a table
	ManagerResolver = datamanager.Resolver
)

// Relation relationship between a parent model and related models, built each time it is requested
type Relation interface {
	// Builder query of the related model
	Builder() *Builder
	Parent() *Model
	Related() *Model
	// AddConstraints scope the query to the parent model
	AddConstraints()
	// AddEagerConstraints scope the query to every model of an eager load batch
	AddEagerConstraints(models []*Model)
	// InitRelation set the empty value of the relation on every model
	InitRelation(models []*Model, name string)
	// Match assign eagerly loaded results to their parents
	Match(models []*Model, results *Collection, name string)
	// GetResults resolve the relation of the parent, a *Model or *Collection
	GetResults(ctx context.Context) (interface{}, error)
	// GetEager fetch results of an eager load batch
	GetEager(ctx context.Context) (*Collection, error)
}

// RelationDeclaration declares a relation on a model definition
type RelationDeclaration interface {
	Relation(parent *Model, name string) (Relation, error)
}

// RelationFunc builds a relation with the model relation helpers, eg:
//
//	hlorm.RelationFunc(func(m *hlorm.Model, name string) (hlorm.Relation, error) {
//		comments, err := m.HasMany(Comment, "post_id", "")
//		if err != nil {
//			return nil, err
//		}
//		comments.Builder().Where("active", true)
//		return comments, nil
//	})
type RelationFunc func(parent *Model, name string) (Relation, error)

// Relation implements RelationDeclaration
func (fc RelationFunc) Relation(parent *Model, name string) (Relation, error) {
	return fc(parent, name)
}

// ConstraintMode whether a relation is scoped to its parent when built
type ConstraintMode int

const (
	// Constrained relation query is scoped to the parent model
	Constrained ConstraintMode = iota
	// Unconstrained relation is built without constraints, eager loads add their own
	Unconstrained
)
