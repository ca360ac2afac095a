package hlorm

import (
	"context"
	"encoding/json"

	"github.com/hlblock/hlorm/utils"
)

// Collection ordered list of models
type Collection struct {
	items []*Model
}

// NewCollection collection of models, nil models are skipped
func NewCollection(models ...*Model) *Collection {
	items := make([]*Model, 0, len(models))
	for _, m := range models {
		if m != nil {
			items = append(items, m)
		}
	}
	return &Collection{items: items}
}

// Items models of the collection
func (c *Collection) Items() []*Model {
	return append([]*Model(nil), c.items...)
}

// Len count of models
func (c *Collection) Len() int {
	return len(c.items)
}

// IsEmpty whether the collection has no models
func (c *Collection) IsEmpty() bool {
	return len(c.items) == 0
}

// First first model, nil when empty
func (c *Collection) First() *Model {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[0]
}

// Last last model, nil when empty
func (c *Collection) Last() *Model {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[len(c.items)-1]
}

// Get model at index, nil when out of range
func (c *Collection) Get(idx int) *Model {
	if idx < 0 || idx >= len(c.items) {
		return nil
	}
	return c.items[idx]
}

// Add append a model
func (c *Collection) Add(m *Model) *Collection {
	if m != nil {
		c.items = append(c.items, m)
	}
	return c
}

// Contains whether a model with the key is in the collection, accepts a key, a *Model or a
// func(*Model) bool
func (c *Collection) Contains(value interface{}) bool {
	switch v := value.(type) {
	case func(*Model) bool:
		for _, m := range c.items {
			if v(m) {
				return true
			}
		}
		return false
	case *Model:
		if v == nil {
			return false
		}
		value = v.GetKey()
	}

	key := utils.ToStringKey(value)
	for _, m := range c.items {
		if utils.ToStringKey(m.GetKey()) == key {
			return true
		}
	}
	return false
}

// Unique one model per key, kept at the position of its first occurrence
func (c *Collection) Unique() *Collection {
	return NewCollection(c.merged(nil)...)
}

// Merge add models of other, models with a key already present replace it in place
func (c *Collection) Merge(other *Collection) *Collection {
	if other == nil {
		return c.Unique()
	}
	return NewCollection(c.merged(other.items)...)
}

func (c *Collection) merged(others []*Model) []*Model {
	positions := map[string]int{}
	results := make([]*Model, 0, len(c.items)+len(others))
	for _, list := range [][]*Model{c.items, others} {
		for _, m := range list {
			key := utils.ToStringKey(m.GetKey())
			if idx, ok := positions[key]; ok {
				results[idx] = m
				continue
			}
			positions[key] = len(results)
			results = append(results, m)
		}
	}
	return results
}

// Diff models whose key is not in other
func (c *Collection) Diff(other *Collection) *Collection {
	if other == nil {
		return NewCollection(c.items...)
	}

	dictionary := other.Dictionary()
	diff := NewCollection()
	for _, m := range c.items {
		if _, ok := dictionary[utils.ToStringKey(m.GetKey())]; !ok {
			diff.Add(m)
		}
	}
	return diff
}

// ModelKeys primary keys of the models
func (c *Collection) ModelKeys() []interface{} {
	keys := make([]interface{}, len(c.items))
	for idx, m := range c.items {
		keys[idx] = m.GetKey()
	}
	return keys
}

// Dictionary models keyed by the string form of their primary key, later models win
func (c *Collection) Dictionary() map[string]*Model {
	dictionary := make(map[string]*Model, len(c.items))
	for _, m := range c.items {
		dictionary[utils.ToStringKey(m.GetKey())] = m
	}
	return dictionary
}

// Filter models for which fc returns true
func (c *Collection) Filter(fc func(m *Model, idx int) bool) *Collection {
	results := NewCollection()
	for idx, m := range c.items {
		if fc(m, idx) {
			results.Add(m)
		}
	}
	return results
}

// Each call fc for every model until it returns false
func (c *Collection) Each(fc func(m *Model, idx int) bool) *Collection {
	for idx, m := range c.items {
		if !fc(m, idx) {
			break
		}
	}
	return c
}

// Pluck attribute values of every model
func (c *Collection) Pluck(key string) []interface{} {
	values := make([]interface{}, len(c.items))
	for idx, m := range c.items {
		values[idx] = m.GetAttribute(key)
	}
	return values
}

// Load eager load relations into every model
func (c *Collection) Load(ctx context.Context, relations ...string) error {
	if len(c.items) == 0 || len(relations) == 0 {
		return nil
	}

	builder := c.items[0].NewBuilder().WithContext(ctx)
	builder.eagerLoad = nil
	builder.With(relations...)
	if builder.Error != nil {
		return builder.Error
	}
	return builder.eagerLoadRelations(c.items)
}

// ToMaps ToMap of every model
func (c *Collection) ToMaps() []map[string]interface{} {
	results := make([]map[string]interface{}, len(c.items))
	for idx, m := range c.items {
		results[idx] = m.ToMap()
	}
	return results
}

// MarshalJSON encode ToMaps
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToMaps())
}
