package hlorm

import (
	"context"

	"github.com/hlblock/hlorm/utils"
)

type hasOneOrMany struct {
	*relation
	foreignKey string
	localKey   string
}

// ForeignKey related column referencing the parent
func (r *hasOneOrMany) ForeignKey() string {
	return r.foreignKey
}

// LocalKey parent column referenced by the foreign key
func (r *hasOneOrMany) LocalKey() string {
	return r.localKey
}

func (r *hasOneOrMany) parentKey() interface{} {
	return r.parent.GetAttribute(r.localKey)
}

func (r *hasOneOrMany) AddConstraints() {
	r.builder.Where(r.foreignKey, r.parentKey())
}

func (r *hasOneOrMany) AddEagerConstraints(models []*Model) {
	r.builder.Where(r.foreignKey, getKeys(models, r.localKey))
}

func (r *hasOneOrMany) matchOne(models []*Model, results *Collection, name string) {
	dictionary := buildDictionary(results, r.foreignKey)
	for _, m := range models {
		if related, ok := dictionary[utils.ToStringKey(m.GetAttribute(r.localKey))]; ok {
			m.SetRelation(name, related[0])
		}
	}
}

func (r *hasOneOrMany) matchMany(models []*Model, results *Collection, name string) {
	dictionary := buildDictionary(results, r.foreignKey)
	for _, m := range models {
		if related, ok := dictionary[utils.ToStringKey(m.GetAttribute(r.localKey))]; ok {
			m.SetRelation(name, NewCollection(related...))
		}
	}
}

// Save set the foreign key of child to the parent and save it
func (r *hasOneOrMany) Save(ctx context.Context, child *Model) (bool, error) {
	if err := child.SetAttribute(r.foreignKey, r.parentKey()); err != nil {
		return false, err
	}
	return child.Save(ctx)
}

// Create create a related model of the parent
func (r *hasOneOrMany) Create(ctx context.Context, attributes map[string]interface{}) (*Model, error) {
	instance, err := r.related.NewInstance(attributes, false)
	if err != nil {
		return nil, err
	}

	saved, err := r.Save(ctx, instance)
	if err != nil {
		return instance, err
	}
	if !saved {
		return instance, instance.Err()
	}
	return instance, nil
}

// Update fill and save every related model, returns the count of saved models
func (r *hasOneOrMany) Update(ctx context.Context, attributes map[string]interface{}) (int, error) {
	models, err := r.builder.WithContext(ctx).Get()
	if err != nil {
		return 0, err
	}

	var count int
	for _, m := range models.items {
		saved, err := m.Update(ctx, attributes)
		if err != nil {
			return count, err
		}
		if saved {
			count++
		}
	}
	return count, nil
}

// HasOne one to one relation, the related model holds the key of the parent
type HasOne struct {
	*hasOneOrMany
}

func (r *HasOne) InitRelation(models []*Model, name string) {
	for _, m := range models {
		m.SetRelation(name, nil)
	}
}

func (r *HasOne) Match(models []*Model, results *Collection, name string) {
	r.matchOne(models, results, name)
}

func (r *HasOne) GetResults(ctx context.Context) (interface{}, error) {
	related, err := r.builder.WithContext(ctx).First()
	if err != nil || related == nil {
		return nil, err
	}
	return related, nil
}

// HasMany one to many relation, related models hold the key of the parent
type HasMany struct {
	*hasOneOrMany
}

func (r *HasMany) InitRelation(models []*Model, name string) {
	for _, m := range models {
		m.SetRelation(name, NewCollection())
	}
}

func (r *HasMany) Match(models []*Model, results *Collection, name string) {
	r.matchMany(models, results, name)
}

func (r *HasMany) GetResults(ctx context.Context) (interface{}, error) {
	results, err := r.builder.WithContext(ctx).Get()
	if err != nil {
		return nil, err
	}
	return results, nil
}
