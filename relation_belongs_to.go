package hlorm

import (
	"context"

	"github.com/hlblock/hlorm/utils"
)

// BelongsTo inverse one to one relation, the parent holds the key of the related model
type BelongsTo struct {
	*relation
	foreignKey string
	otherKey   string
	name       string
}

// ForeignKey parent column holding the related key
func (r *BelongsTo) ForeignKey() string {
	return r.foreignKey
}

// OtherKey related column referenced by the foreign key
func (r *BelongsTo) OtherKey() string {
	return r.otherKey
}

func (r *BelongsTo) AddConstraints() {
	r.builder.Where(r.otherKey, r.parent.GetAttribute(r.foreignKey))
}

func (r *BelongsTo) AddEagerConstraints(models []*Model) {
	r.builder.Where(r.otherKey, getKeys(models, r.foreignKey))
}

func (r *BelongsTo) InitRelation(models []*Model, name string) {
	for _, m := range models {
		m.SetRelation(name, nil)
	}
}

func (r *BelongsTo) Match(models []*Model, results *Collection, name string) {
	dictionary := buildDictionary(results, r.otherKey)
	for _, m := range models {
		key := m.GetAttribute(r.foreignKey)
		if key == nil {
			continue
		}
		if related, ok := dictionary[utils.ToStringKey(key)]; ok {
			m.SetRelation(name, related[len(related)-1])
		}
	}
}

func (r *BelongsTo) GetResults(ctx context.Context) (interface{}, error) {
	related, err := r.first(ctx)
	if err != nil || related == nil {
		return nil, err
	}
	return related, nil
}

func (r *BelongsTo) first(ctx context.Context) (*Model, error) {
	return r.builder.WithContext(ctx).First()
}

// Associate set the foreign key of the parent from a related model or a key
func (r *BelongsTo) Associate(value interface{}) error {
	if related, ok := value.(*Model); ok && related != nil {
		if err := r.parent.SetAttribute(r.foreignKey, related.GetAttribute(r.otherKey)); err != nil {
			return err
		}
		r.parent.SetRelation(r.name, related)
		return nil
	}
	return r.parent.SetAttribute(r.foreignKey, value)
}

// Dissociate clear the foreign key of the parent
func (r *BelongsTo) Dissociate() error {
	if err := r.parent.SetAttribute(r.foreignKey, nil); err != nil {
		return err
	}
	r.parent.SetRelation(r.name, nil)
	return nil
}

// Update fill and save the related model, false when there is none
func (r *BelongsTo) Update(ctx context.Context, attributes map[string]interface{}) (bool, error) {
	related, err := r.first(ctx)
	if err != nil || related == nil {
		return false, err
	}
	if err := related.Fill(attributes); err != nil {
		return false, err
	}
	return related.Save(ctx)
}
