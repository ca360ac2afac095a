package hlorm

import (
	"context"
	"fmt"

	"github.com/hlblock/hlorm/utils"
)

// relation state shared by every relation kind
type relation struct {
	builder *Builder
	parent  *Model
	related *Model
}

func newRelationBase(parent *Model, related *Definition) (*relation, error) {
	if related == nil {
		return nil, fmt.Errorf("%w: relation of %s has no related definition", ErrInvalidArgument, parent.Schema.Name)
	}
	if parent.db == nil {
		return nil, ErrMissingDataManager
	}

	s, err := parent.db.Schema(related)
	if err != nil {
		return nil, err
	}

	instance := newModel(parent.db, s)
	return &relation{builder: instance.NewBuilder(), parent: parent, related: instance}, nil
}

// Builder query of the related model
func (r *relation) Builder() *Builder {
	return r.builder
}

// Parent model owning the relation
func (r *relation) Parent() *Model {
	return r.parent
}

// Related template model of the related definition
func (r *relation) Related() *Model {
	return r.related
}

// GetEager fetch related models of an eager load batch
func (r *relation) GetEager(ctx context.Context) (*Collection, error) {
	return r.builder.WithContext(ctx).Get()
}

// getKeys distinct non nil values of key across models
func getKeys(models []*Model, key string) []interface{} {
	keys := make([]interface{}, 0, len(models))
	for _, m := range models {
		if value := m.GetAttribute(key); value != nil {
			keys = append(keys, value)
		}
	}
	return utils.Unique(keys)
}

// buildDictionary group results by the string form of key
func buildDictionary(results *Collection, key string) map[string][]*Model {
	dictionary := map[string][]*Model{}
	if results == nil {
		return dictionary
	}
	for _, result := range results.items {
		k := utils.ToStringKey(result.GetAttribute(key))
		dictionary[k] = append(dictionary[k], result)
	}
	return dictionary
}
