package hlorm

import (
	"context"
	"fmt"

	"github.com/hlblock/hlorm/schema"
	"github.com/hlblock/hlorm/utils"
)

// BelongsToMany many to many relation stored as a list of related keys in a parent attribute
type BelongsToMany struct {
	*relation
	foreignKey string
	localKey   string
	name       string
}

// ForeignKey parent column holding the related keys
func (r *BelongsToMany) ForeignKey() string {
	return r.foreignKey
}

// LocalKey related column the keys refer to
func (r *BelongsToMany) LocalKey() string {
	return r.localKey
}

func (r *BelongsToMany) AddConstraints() {
	r.builder.Where(r.localKey, r.parentKeys(r.parent))
}

func (r *BelongsToMany) AddEagerConstraints(models []*Model) {
	var keys []interface{}
	for _, m := range models {
		keys = append(keys, r.parentKeys(m)...)
	}
	r.builder.Where(r.localKey, utils.Unique(keys))
}

func (r *BelongsToMany) InitRelation(models []*Model, name string) {
	for _, m := range models {
		m.SetRelation(name, NewCollection())
	}
}

// Match assign related models in the order of the parent key list
func (r *BelongsToMany) Match(models []*Model, results *Collection, name string) {
	dictionary := buildDictionary(results, r.localKey)
	for _, m := range models {
		related := NewCollection()
		for _, key := range utils.Unique(r.parentKeys(m)) {
			if found, ok := dictionary[utils.ToStringKey(key)]; ok {
				related.Add(found[len(found)-1])
			}
		}
		m.SetRelation(name, related)
	}
}

func (r *BelongsToMany) GetResults(ctx context.Context) (interface{}, error) {
	results, err := r.builder.WithContext(ctx).Get()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *BelongsToMany) parentKeys(m *Model) []interface{} {
	return idList(m.GetAttribute(r.foreignKey))
}

// Attach add keys to the parent key list and save the parent
func (r *BelongsToMany) Attach(ctx context.Context, keys interface{}) (bool, error) {
	return r.attachOrDetach(ctx, keys, true)
}

// Detach remove keys from the parent key list and save the parent
func (r *BelongsToMany) Detach(ctx context.Context, keys interface{}) (bool, error) {
	return r.attachOrDetach(ctx, keys, false)
}

func (r *BelongsToMany) attachOrDetach(ctx context.Context, keys interface{}, attach bool) (bool, error) {
	values, err := arrayableKeys(keys)
	if err != nil {
		return false, err
	}

	ids := r.parentKeys(r.parent)
	var related []interface{}
	if attach {
		related = utils.Unique(append(append([]interface{}{}, ids...), values...))
	} else {
		removed := map[string]bool{}
		for _, value := range values {
			removed[utils.ToStringKey(value)] = true
		}
		related = []interface{}{}
		for _, id := range ids {
			if !removed[utils.ToStringKey(id)] {
				related = append(related, id)
			}
		}
	}

	if err := r.parent.SetAttribute(r.foreignKey, related); err != nil {
		return false, err
	}
	return r.parent.Save(ctx)
}

func arrayableKeys(keys interface{}) ([]interface{}, error) {
	switch v := keys.(type) {
	case *Model:
		if v != nil {
			return []interface{}{v.GetKey()}, nil
		}
	case *Collection:
		if v != nil {
			return v.ModelKeys(), nil
		}
	case string:
		return []interface{}{v}, nil
	default:
		if isList(keys) {
			return utils.ToSlice(keys), nil
		}
		if utils.IsNumeric(keys) {
			return []interface{}{keys}, nil
		}
	}
	return nil, fmt.Errorf("%w: keys must be a list of ids, a model or a collection of models, got %T", ErrInvalidArgument, keys)
}

// idList keys stored in a multiple value attribute, json encoded lists are decoded
func idList(value interface{}) []interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case string, []byte:
		decoded, err := schema.FromJSON(v)
		if err == nil && isList(decoded) {
			return utils.ToSlice(decoded)
		}
		if utils.IsEmpty(v) {
			return nil
		}
		if s, ok := v.([]byte); ok {
			return []interface{}{string(s)}
		}
	}
	return utils.ToSlice(value)
}
