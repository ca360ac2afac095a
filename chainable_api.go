package hlorm

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hlblock/hlorm/clause"
)

// DefaultPerPage page size of ForPage when none is given
const DefaultPerPage = 15

// WithContext change current context
func (b *Builder) WithContext(ctx context.Context) *Builder {
	b.ctx = ctx
	return b
}

// Select specify columns fetched by queries
func (b *Builder) Select(columns ...string) *Builder {
	if b.model == nil {
		return b
	}
	b.selects = b.model.Schema.Namer.NormalizeKeys(columns)
	return b.changed()
}

// AddSelect add columns to the selected ones
func (b *Builder) AddSelect(columns ...string) *Builder {
	if b.model == nil {
		return b
	}
	b.selects = append(b.selects, b.model.Schema.Namer.NormalizeKeys(columns)...)
	return b.changed()
}

// OrderBy order by column, direction is asc unless desc is given
//
//	builder.OrderBy("sort").OrderBy("id", "desc")
func (b *Builder) OrderBy(column string, direction ...string) *Builder {
	if b.model == nil {
		return b
	}

	order := clause.OrderByColumn{Column: b.normalizeKey(column)}
	if len(direction) > 0 {
		order.Desc = clause.ParseDirection(direction[0])
	}

	for idx, existing := range b.order {
		if existing.Column == order.Column {
			b.order[idx] = order
			return b.changed()
		}
	}
	b.order = append(b.order, order)
	return b.changed()
}

// Latest order by column descending, created_at by default
func (b *Builder) Latest(column ...string) *Builder {
	if len(column) == 0 {
		return b.OrderBy(CreatedAt, "desc")
	}
	return b.OrderBy(column[0], "desc")
}

// Oldest order by column ascending, created_at by default
func (b *Builder) Oldest(column ...string) *Builder {
	if len(column) == 0 {
		return b.OrderBy(CreatedAt, "asc")
	}
	return b.OrderBy(column[0], "asc")
}

// Limit specify the number of records to be retrieved, ignored unless positive
func (b *Builder) Limit(limit int) *Builder {
	if limit > 0 {
		b.limit = limit
	}
	return b.changed()
}

// Take alias of Limit
func (b *Builder) Take(limit int) *Builder {
	return b.Limit(limit)
}

// Offset specify the number of records to skip before starting to return the records
func (b *Builder) Offset(offset int) *Builder {
	if offset >= 0 {
		b.offset = offset
	}
	return b.changed()
}

// Skip alias of Offset
func (b *Builder) Skip(offset int) *Builder {
	return b.Offset(offset)
}

// ForPage limit and offset of a page, pages start at 1
func (b *Builder) ForPage(page, perPage int) *Builder {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	return b.Offset((page - 1) * perPage).Limit(perPage)
}

// GroupBy group by columns
func (b *Builder) GroupBy(columns ...string) *Builder {
	if b.model == nil {
		return b
	}
	b.group = append(b.group, b.model.Schema.Namer.NormalizeKeys(columns)...)
	return b.changed()
}

// Where add conditions joined with AND
//
//	builder.Where("active", true)                // UF_ACTIVE = true
//	builder.Where("price", ">=", 100)            // >=UF_PRICE
//	builder.Where("id", []int{1, 2})             // ID in (1, 2)
//	builder.Where(map[string]interface{}{"~name": "foo", "!status": "draft"})
func (b *Builder) Where(column interface{}, args ...interface{}) *Builder {
	if b.model == nil {
		return b
	}

	filter, err := b.buildCondition(column, args...)
	if err != nil {
		b.AddError(err)
		return b
	}
	b.filter.Merge(filter)
	return b.changed()
}

// OrWhere add conditions into the OR group of the filter
func (b *Builder) OrWhere(column interface{}, args ...interface{}) *Builder {
	return b.WhereGroup(string(clause.OR), column, args...)
}

// WhereGroup add conditions as a sub filter of the logic group, the group is created on first use
func (b *Builder) WhereGroup(logic string, column interface{}, args ...interface{}) *Builder {
	if b.model == nil {
		return b
	}

	parsed, err := clause.ParseLogic(logic)
	if err != nil {
		b.AddError(fmt.Errorf("%w: %v", ErrInvalidArgument, err))
		return b
	}

	filter, err := b.buildCondition(column, args...)
	if err != nil {
		b.AddError(err)
		return b
	}
	b.filter.AddToGroup(parsed, filter)
	return b.changed()
}

func (b *Builder) buildCondition(column interface{}, args ...interface{}) (clause.Filter, error) {
	var filter clause.Filter

	switch v := column.(type) {
	case map[string]interface{}:
		if len(args) > 0 {
			return filter, fmt.Errorf("%w: unexpected arguments with a condition map", ErrInvalidArgument)
		}

		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			op, name := clause.SplitKey(key)
			cond, err := b.newCond(op, name, v[key])
			if err != nil {
				return filter, err
			}
			filter.Set(cond)
		}
	case string:
		op, value := clause.Eq, interface{}(nil)
		switch len(args) {
		case 0:
		case 1:
			value = args[0]
		case 2:
			token, ok := args[0].(string)
			if !ok {
				return filter, fmt.Errorf("%w: operator must be a string, got %T", ErrInvalidArgument, args[0])
			}
			parsed, err := clause.ParseOperator(token)
			if err != nil {
				return filter, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			op, value = parsed, args[1]
		default:
			return filter, fmt.Errorf("%w: too many arguments for column %s", ErrInvalidArgument, v)
		}

		cond, err := b.newCond(op, v, value)
		if err != nil {
			return filter, err
		}
		filter.Set(cond)
	default:
		return filter, fmt.Errorf("%w: unsupported column type %T", ErrInvalidArgument, column)
	}
	return filter, nil
}

func (b *Builder) newCond(op clause.Operator, column string, value interface{}) (clause.Cond, error) {
	if value == nil && !op.IsDefault() {
		return clause.Cond{}, fmt.Errorf("%w: operator %s does not accept a nil value", ErrInvalidArgument, op)
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		value = normalizeList(rv)
	}
	return clause.Cond{Op: op, Column: b.normalizeKey(strings.TrimSpace(column)), Value: value}, nil
}

func normalizeList(rv reflect.Value) []interface{} {
	results := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		results[i] = rv.Index(i).Interface()
	}
	return results
}

// With eager load relations, nested relations are separated by dots
//
//	builder.With("author", "comments.author")
func (b *Builder) With(relations ...string) *Builder {
	for _, name := range relations {
		b.addEagerLoad(name, nil)
	}
	return b.changed()
}

// WithConstraints eager load relations with constraints applied to their queries
//
//	builder.WithConstraints(map[string]hlorm.Constraint{
//		"comments": func(b *hlorm.Builder) { b.Where("approved", true) },
//	})
func (b *Builder) WithConstraints(relations map[string]Constraint) *Builder {
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.addEagerLoad(name, relations[name])
	}
	return b.changed()
}

// WithFiles resolve file paths of fields besides the declared file fields
func (b *Builder) WithFiles(fields ...string) *Builder {
	if b.model == nil {
		return b
	}
	for _, column := range b.model.Schema.Namer.NormalizeKeys(fields) {
		found := false
		for _, existing := range b.files {
			if existing == column {
				found = true
				break
			}
		}
		if !found {
			b.files = append(b.files, column)
		}
	}
	return b
}

// SetModelPrimary primary key addressed by Update and Delete
func (b *Builder) SetModelPrimary(primary interface{}) *Builder {
	b.modelPrimary = primary
	return b
}

// addEagerLoad register a relation path, ancestors of a nested path are registered without constraint
// unless they already are, the path itself gets the constraint
func (b *Builder) addEagerLoad(name string, constraint Constraint) {
	b.registerEagerLoad(name, constraint, false)
}

// addPreload register a default preload of the model, a path also requested with With stays explicit
func (b *Builder) addPreload(name string) {
	b.registerEagerLoad(name, nil, true)
}

func (b *Builder) registerEagerLoad(name string, constraint Constraint, preset bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	parts := strings.Split(name, ".")
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], ".")
		if idx := b.eagerLoadIndex(ancestor); idx < 0 {
			b.eagerLoad = append(b.eagerLoad, eagerLoad{name: ancestor, preset: preset})
		} else if !preset {
			b.eagerLoad[idx].preset = false
		}
	}

	if idx := b.eagerLoadIndex(name); idx >= 0 {
		if constraint != nil || !preset {
			b.eagerLoad[idx].constraint = constraint
		}
		if !preset {
			b.eagerLoad[idx].preset = false
		}
		return
	}
	b.eagerLoad = append(b.eagerLoad, eagerLoad{name: name, constraint: constraint, preset: preset})
}

func (b *Builder) eagerLoadIndex(name string) int {
	for idx, load := range b.eagerLoad {
		if load.name == name {
			return idx
		}
	}
	return -1
}

// EagerLoads registered relation paths in registration order
func (b *Builder) EagerLoads() []string {
	names := make([]string, len(b.eagerLoad))
	for idx, load := range b.eagerLoad {
		names[idx] = load.name
	}
	return names
}
