package hlorm

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/hlblock/hlorm/schema"
	"github.com/hlblock/hlorm/utils"
)

// Fill set attributes, keys are logical or column names
func (m *Model) Fill(attributes map[string]interface{}) error {
	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := m.SetAttribute(key, attributes[key]); err != nil {
			return err
		}
	}
	return nil
}

// SetAttribute set attribute value, set accessors take over the value, dates are formatted with the
// date layout and json casts are encoded
func (m *Model) SetAttribute(key string, value interface{}) error {
	column := m.NormalizeKey(key)

	if accessor, ok := m.Schema.Accessors[column]; ok && accessor.Set != nil {
		m.attributes[column] = accessor.Set(m, value)
		return nil
	}

	if !utils.IsEmpty(value) && m.Schema.IsDate(column) {
		formatted, err := schema.FromDateTime(value, m.Schema.DateFormat)
		if err != nil {
			return err
		}
		value = formatted
	}

	if value != nil && schema.IsJSONCast(m.Schema.CastType(column)) {
		if _, isString := value.(string); !isString {
			encoded, err := schema.ToJSON(value)
			if err != nil {
				return err
			}
			value = encoded
		}
	}

	m.attributes[column] = value
	return nil
}

// SetRawAttributes replace attributes without accessors or casts
func (m *Model) SetRawAttributes(attributes map[string]interface{}, sync bool) *Model {
	m.attributes = make(map[string]interface{}, len(attributes))
	for key, value := range attributes {
		m.attributes[m.NormalizeKey(key)] = value
	}
	if sync {
		m.SyncOriginal()
	}
	return m
}

// GetAttribute attribute value when the key is an attribute, accessor or loaded file, otherwise the
// loaded relation value
func (m *Model) GetAttribute(key string) interface{} {
	column := m.NormalizeKey(key)
	if _, ok := m.attributes[column]; ok || m.hasGetAccessor(column) || m.hasFile(column) {
		value, err := m.GetAttributeValue(key)
		if err != nil {
			m.warn("failed to cast attribute %s: %v", key, err)
			return m.attributes[column]
		}
		return value
	}
	return m.relations[key]
}

// GetAttributeValue attribute value through file paths, get accessors, casts and dates
func (m *Model) GetAttributeValue(key string) (interface{}, error) {
	column := m.NormalizeKey(key)
	value := m.attributes[column]

	if m.hasFile(column) {
		return m.files[m.DenormalizeKey(column)], nil
	}

	if m.hasGetAccessor(column) {
		return m.Schema.Accessors[column].Get(m, value), nil
	}

	if cast := m.Schema.CastType(column); cast != "" {
		return schema.CastValue(cast, value, m.Schema.CastOptions())
	}

	if value != nil && m.Schema.Dates[column] {
		return schema.AsDateTime(value, m.Schema.DateFormat)
	}
	return value, nil
}

// RawAttribute stored attribute value
func (m *Model) RawAttribute(key string) interface{} {
	return m.attributes[m.NormalizeKey(key)]
}

// Attributes stored attributes keyed by column
func (m *Model) Attributes() map[string]interface{} {
	return copyMap(m.attributes)
}

// Original attributes as of the last sync keyed by column
func (m *Model) Original() map[string]interface{} {
	return copyMap(m.original)
}

// GetOriginal original value of an attribute
func (m *Model) GetOriginal(key string) interface{} {
	return m.original[m.NormalizeKey(key)]
}

// SyncOriginal mark current attributes as persisted
func (m *Model) SyncOriginal() *Model {
	m.original = copyMap(m.attributes)
	return m
}

// GetDirty attributes changed since the last sync
func (m *Model) GetDirty() map[string]interface{} {
	dirty := map[string]interface{}{}
	for column, value := range m.attributes {
		original, ok := m.original[column]
		if !ok || !equivalent(value, original) {
			dirty[column] = value
		}
	}
	return dirty
}

// IsDirty whether any attribute, or any of the given keys, changed since the last sync
func (m *Model) IsDirty(keys ...string) bool {
	dirty := m.GetDirty()
	if len(keys) == 0 {
		return len(dirty) > 0
	}

	for _, key := range keys {
		if _, ok := dirty[m.NormalizeKey(key)]; ok {
			return true
		}
	}
	return false
}

// equivalent strict equality, numbers are equal when their canonical forms are, eg: 5 and "5"
func equivalent(current, original interface{}) bool {
	if reflect.DeepEqual(current, original) {
		return true
	}
	return utils.IsNumeric(current) && utils.IsNumeric(original) &&
		utils.ToStringKey(current) == utils.ToStringKey(original)
}

func (m *Model) hasGetAccessor(column string) bool {
	accessor, ok := m.Schema.Accessors[column]
	return ok && accessor.Get != nil
}

// FromDateTime format value with the date layout of the model
func (m *Model) FromDateTime(value interface{}) (string, error) {
	return schema.FromDateTime(value, m.Schema.DateFormat)
}

// AsDateTime parse value with the date layout of the model
func (m *Model) AsDateTime(value interface{}) (time.Time, error) {
	return schema.AsDateTime(value, m.Schema.DateFormat)
}

// ToMap serializable form with logical keys, hidden and visible keys applied, dates formatted with the
// date layout, accessors and casts applied, appends, relations and loaded files added
func (m *Model) ToMap() map[string]interface{} {
	results := m.arrayableItems(m.denormalizedAttributes())

	for column := range m.Schema.Dates {
		key := m.DenormalizeKey(column)
		if value, ok := results[key]; ok && value != nil {
			results[key] = m.serializeDate(value)
		}
	}

	mutated := map[string]bool{}
	for column, accessor := range m.Schema.Accessors {
		if accessor.Get == nil {
			continue
		}
		key := m.DenormalizeKey(column)
		mutated[key] = true
		if value, ok := results[key]; ok {
			results[key] = accessor.Get(m, value)
		}
	}

	for column, cast := range m.Schema.Casts {
		key := m.DenormalizeKey(column)
		value, ok := results[key]
		if !ok || mutated[key] {
			continue
		}

		casted, err := schema.CastValue(cast, value, m.Schema.CastOptions())
		if err != nil {
			m.warn("failed to cast attribute %s: %v", key, err)
			continue
		}
		if casted != nil && schema.IsDateCast(cast) {
			casted = m.serializeDate(casted)
		}
		results[key] = casted
	}

	for _, key := range m.Schema.Appends {
		if accessor, ok := m.Schema.Accessors[m.NormalizeKey(key)]; ok && accessor.Get != nil {
			results[key] = accessor.Get(m, nil)
		}
	}

	for key, path := range m.arrayableItems(m.loadedFiles()) {
		results[key] = path
	}

	for name, value := range m.relations {
		key := m.Schema.Namer.RelationKey(name)
		switch v := value.(type) {
		case *Model:
			results[key] = v.ToMap()
		case *Collection:
			results[key] = v.ToMaps()
		case nil:
			results[key] = nil
		}
	}
	return results
}

// MarshalJSON encode ToMap
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

func (m *Model) denormalizedAttributes() map[string]interface{} {
	results := make(map[string]interface{}, len(m.attributes))
	for column, value := range m.attributes {
		results[m.DenormalizeKey(column)] = value
	}
	return results
}

func (m *Model) loadedFiles() map[string]interface{} {
	results := make(map[string]interface{}, len(m.files))
	for key, path := range m.files {
		if path != "" {
			results[key] = path
		}
	}
	return results
}

// arrayableItems keep visible keys when any are declared, then drop hidden keys
func (m *Model) arrayableItems(values map[string]interface{}) map[string]interface{} {
	if len(m.Schema.Visible) > 0 {
		for key := range values {
			if !utils.Contains(m.Schema.Visible, key) {
				delete(values, key)
			}
		}
	}
	for _, key := range m.Schema.Hidden {
		delete(values, key)
	}
	return values
}

func (m *Model) serializeDate(value interface{}) interface{} {
	t, err := schema.AsDateTime(value, m.Schema.DateFormat)
	if err != nil {
		m.warn("failed to parse date %v: %v", value, err)
		return value
	}
	return t.Format(m.Schema.DateFormat)
}

func (m *Model) warn(msg string, data ...interface{}) {
	if m.db != nil && m.db.Logger != nil {
		m.db.Logger.Warn(context.Background(), msg, data...)
	}
}

func copyMap(values map[string]interface{}) map[string]interface{} {
	results := make(map[string]interface{}, len(values))
	for key, value := range values {
		results[key] = value
	}
	return results
}
