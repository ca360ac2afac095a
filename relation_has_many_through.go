package hlorm

import (
	"context"

	"github.com/hlblock/hlorm/utils"
)

// HasManyThrough one to many relation reached through an intermediate model: through rows reference
// the far parent with firstKey, related rows reference through rows with secondKey
type HasManyThrough struct {
	*relation
	through    *Model
	firstKey   string
	secondKey  string
	localKey   string
	throughKey string

	farKeys           []interface{}
	throughDictionary map[string]string
}

// Through template model of the intermediate definition
func (r *HasManyThrough) Through() *Model {
	return r.through
}

// FirstKey through column referencing the far parent
func (r *HasManyThrough) FirstKey() string {
	return r.firstKey
}

// SecondKey related column referencing the through model
func (r *HasManyThrough) SecondKey() string {
	return r.secondKey
}

func (r *HasManyThrough) AddConstraints() {
	r.farKeys = getKeys([]*Model{r.parent}, r.localKey)
}

func (r *HasManyThrough) AddEagerConstraints(models []*Model) {
	r.farKeys = getKeys(models, r.localKey)
}

func (r *HasManyThrough) InitRelation(models []*Model, name string) {
	for _, m := range models {
		m.SetRelation(name, NewCollection())
	}
}

func (r *HasManyThrough) Match(models []*Model, results *Collection, name string) {
	dictionary := map[string][]*Model{}
	for _, result := range results.items {
		farKey, ok := r.throughDictionary[utils.ToStringKey(result.GetAttribute(r.secondKey))]
		if ok {
			dictionary[farKey] = append(dictionary[farKey], result)
		}
	}

	for _, m := range models {
		if related, ok := dictionary[utils.ToStringKey(m.GetAttribute(r.localKey))]; ok {
			m.SetRelation(name, NewCollection(related...))
		}
	}
}

func (r *HasManyThrough) GetResults(ctx context.Context) (interface{}, error) {
	results, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *HasManyThrough) GetEager(ctx context.Context) (*Collection, error) {
	return r.Get(ctx)
}

// Get fetch through rows of the far parents, then related rows of the through rows
func (r *HasManyThrough) Get(ctx context.Context, columns ...string) (*Collection, error) {
	r.throughDictionary = map[string]string{}
	if len(r.farKeys) == 0 {
		return NewCollection(), nil
	}

	intermediates, err := r.through.NewBuilder().WithContext(ctx).
		Where(r.firstKey, r.farKeys).
		Get(r.throughKey, r.firstKey)
	if err != nil {
		return nil, err
	}

	throughKeys := make([]interface{}, 0, intermediates.Len())
	for _, m := range intermediates.items {
		key := m.GetAttribute(r.throughKey)
		throughKeys = append(throughKeys, key)
		r.throughDictionary[utils.ToStringKey(key)] = utils.ToStringKey(m.GetAttribute(r.firstKey))
	}
	if len(throughKeys) == 0 {
		return NewCollection(), nil
	}

	return r.builder.WithContext(ctx).Where(r.secondKey, throughKeys).Get(columns...)
}

// First first related model, nil when none
func (r *HasManyThrough) First(ctx context.Context, columns ...string) (*Model, error) {
	r.builder.Limit(1)
	results, err := r.Get(ctx, columns...)
	if err != nil {
		return nil, err
	}
	return results.First(), nil
}

// Find related model by primary key, a slice of keys finds the first of FindMany
func (r *HasManyThrough) Find(ctx context.Context, id interface{}, columns ...string) (*Model, error) {
	if isList(id) {
		results, err := r.FindMany(ctx, utils.ToSlice(id), columns...)
		if err != nil {
			return nil, err
		}
		return results.First(), nil
	}

	r.builder.Where(r.related.GetKeyName(), id)
	return r.First(ctx, columns...)
}

// FindMany related models by primary keys
func (r *HasManyThrough) FindMany(ctx context.Context, ids []interface{}, columns ...string) (*Collection, error) {
	if len(ids) == 0 {
		return NewCollection(), nil
	}

	r.builder.Where(r.related.GetKeyName(), ids)
	return r.Get(ctx, columns...)
}
