package hlorm

import (
	"fmt"
	"strings"
)

// BelongsTo inverse one to one relation. foreignKey is the parent column holding the related key,
// snake(name)_id by default; otherKey is the referenced related column, its primary key by default.
// Without a name the relation is cached under the foreign key without its _id suffix.
// Constraints are added by Model.Relation
func (m *Model) BelongsTo(related *Definition, foreignKey, otherKey, name string) (*BelongsTo, error) {
	if foreignKey == "" {
		if name == "" {
			return nil, fmt.Errorf("%w: belongs to relation of %s needs a name or a foreign key", ErrInvalidArgument, m.Schema.Name)
		}
		foreignKey = m.Schema.Namer.RelationKey(name) + "_id"
	}

	base, err := newRelationBase(m, related)
	if err != nil {
		return nil, err
	}

	foreignKey = m.NormalizeKey(foreignKey)
	if name == "" {
		name = strings.TrimSuffix(m.Schema.Namer.DenormalizeKey(foreignKey), "_id")
	}

	return &BelongsTo{
		relation:   base,
		foreignKey: foreignKey,
		otherKey:   base.related.NormalizeKey(firstNonEmpty(otherKey, base.related.GetKeyName())),
		name:       name,
	}, nil
}

// HasOne one to one relation. foreignKey is the related column referencing the parent, localKey the
// referenced parent column
func (m *Model) HasOne(related *Definition, foreignKey, localKey string) (*HasOne, error) {
	base, err := m.hasOneOrMany(related, foreignKey, localKey)
	if err != nil {
		return nil, err
	}
	return &HasOne{hasOneOrMany: base}, nil
}

// HasMany one to many relation. foreignKey is the related column referencing the parent, localKey the
// referenced parent column
func (m *Model) HasMany(related *Definition, foreignKey, localKey string) (*HasMany, error) {
	base, err := m.hasOneOrMany(related, foreignKey, localKey)
	if err != nil {
		return nil, err
	}
	return &HasMany{hasOneOrMany: base}, nil
}

func (m *Model) hasOneOrMany(related *Definition, foreignKey, localKey string) (*hasOneOrMany, error) {
	base, err := newRelationBase(m, related)
	if err != nil {
		return nil, err
	}

	return &hasOneOrMany{
		relation:   base,
		foreignKey: base.related.NormalizeKey(firstNonEmpty(foreignKey, m.Schema.ForeignKey())),
		localKey:   m.NormalizeKey(firstNonEmpty(localKey, m.GetKeyName())),
	}, nil
}

// HasManyThrough one to many relation through an intermediate definition. firstKey is the through
// column referencing the parent, secondKey the related column referencing the through model, localKey
// the referenced parent column
func (m *Model) HasManyThrough(related, through *Definition, firstKey, secondKey, localKey string) (*HasManyThrough, error) {
	base, err := newRelationBase(m, related)
	if err != nil {
		return nil, err
	}

	intermediate, err := newRelationBase(m, through)
	if err != nil {
		return nil, err
	}
	throughModel := intermediate.related

	return &HasManyThrough{
		relation:   base,
		through:    throughModel,
		firstKey:   throughModel.NormalizeKey(firstNonEmpty(firstKey, m.Schema.ForeignKey())),
		secondKey:  base.related.NormalizeKey(firstNonEmpty(secondKey, throughModel.Schema.ForeignKey())),
		localKey:   m.NormalizeKey(firstNonEmpty(localKey, m.GetKeyName())),
		throughKey: throughModel.GetKeyName(),
	}, nil
}

// BelongsToMany many to many relation kept as a key list in the parent. foreignKey is the parent
// column holding the list, snake(name)_id by default; otherKey the related column the keys refer to
func (m *Model) BelongsToMany(related *Definition, foreignKey, otherKey, name string) (*BelongsToMany, error) {
	if foreignKey == "" {
		if name == "" {
			return nil, fmt.Errorf("%w: belongs to many relation of %s needs a name or a foreign key", ErrInvalidArgument, m.Schema.Name)
		}
		foreignKey = m.Schema.Namer.RelationKey(name) + "_id"
	}

	base, err := newRelationBase(m, related)
	if err != nil {
		return nil, err
	}

	return &BelongsToMany{
		relation:   base,
		foreignKey: m.NormalizeKey(foreignKey),
		localKey:   base.related.NormalizeKey(firstNonEmpty(otherKey, base.related.GetKeyName())),
		name:       name,
	}, nil
}

// BelongsToDef declares a BelongsTo relation
type BelongsToDef struct {
	Related    *Definition
	ForeignKey string
	OtherKey   string
}

// Relation implements RelationDeclaration
func (d BelongsToDef) Relation(parent *Model, name string) (Relation, error) {
	r, err := parent.BelongsTo(d.Related, d.ForeignKey, d.OtherKey, name)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// HasOneDef declares a HasOne relation
type HasOneDef struct {
	Related    *Definition
	ForeignKey string
	LocalKey   string
}

// Relation implements RelationDeclaration
func (d HasOneDef) Relation(parent *Model, _ string) (Relation, error) {
	r, err := parent.HasOne(d.Related, d.ForeignKey, d.LocalKey)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// HasManyDef declares a HasMany relation
type HasManyDef struct {
	Related    *Definition
	ForeignKey string
	LocalKey   string
}

// Relation implements RelationDeclaration
func (d HasManyDef) Relation(parent *Model, _ string) (Relation, error) {
	r, err := parent.HasMany(d.Related, d.ForeignKey, d.LocalKey)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// HasManyThroughDef declares a HasManyThrough relation
type HasManyThroughDef struct {
	Related   *Definition
	Through   *Definition
	FirstKey  string
	SecondKey string
	LocalKey  string
}

// Relation implements RelationDeclaration
func (d HasManyThroughDef) Relation(parent *Model, _ string) (Relation, error) {
	r, err := parent.HasManyThrough(d.Related, d.Through, d.FirstKey, d.SecondKey, d.LocalKey)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// BelongsToManyDef declares a BelongsToMany relation
type BelongsToManyDef struct {
	Related    *Definition
	ForeignKey string
	OtherKey   string
}

// Relation implements RelationDeclaration
func (d BelongsToManyDef) Relation(parent *Model, name string) (Relation, error) {
	r, err := parent.BelongsToMany(d.Related, d.ForeignKey, d.OtherKey, name)
	if err != nil {
		return nil, err
	}
	return r, nil
}
