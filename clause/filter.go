package clause

import (
	"strconv"
)

// Cond compiled condition, the key is the operator prefix followed by the column
type Cond struct {
	Op     Operator
	Column string
	Value  interface{}
}

// Key compiled filter key, eg: >UF_PRICE
func (cond Cond) Key() string {
	return cond.Op.Prefix() + cond.Column
}

// Group logic group, conditions inside each filter are joined with AND, filters are joined with Logic
type Group struct {
	Logic   Logic
	Filters []Filter
}

// Filter ordered filter, the compiled form of where calls
type Filter struct {
	Exprs []Expression
}

// NewFilter build filter from conditions
func NewFilter(conds ...Cond) Filter {
	var filter Filter
	for _, cond := range conds {
		filter.Set(cond)
	}
	return filter
}

// Len count of top level entries
func (filter Filter) Len() int {
	return len(filter.Exprs)
}

// Set add condition, a condition with the same key is replaced in place
func (filter *Filter) Set(cond Cond) {
	key := cond.Key()
	for idx, expr := range filter.Exprs {
		if c, ok := expr.(Cond); ok && c.Key() == key {
			filter.Exprs[idx] = cond
			return
		}
	}
	filter.Exprs = append(filter.Exprs, cond)
}

// Merge set every condition and group of other
func (filter *Filter) Merge(other Filter) {
	for _, expr := range other.Exprs {
		switch v := expr.(type) {
		case Cond:
			filter.Set(v)
		case Group:
			filter.Exprs = append(filter.Exprs, v.clone())
		}
	}
}

// AddToGroup append sub filter to the group of the logic, the group is created on first use
func (filter *Filter) AddToGroup(logic Logic, sub Filter) {
	for idx, expr := range filter.Exprs {
		if g, ok := expr.(Group); ok && g.Logic == logic {
			g.Filters = append(g.Filters, sub)
			filter.Exprs[idx] = g
			return
		}
	}
	filter.Exprs = append(filter.Exprs, Group{Logic: logic, Filters: []Filter{sub}})
}

// Lookup value of a top level compiled key
func (filter Filter) Lookup(key string) (interface{}, bool) {
	for _, expr := range filter.Exprs {
		if c, ok := expr.(Cond); ok && c.Key() == key {
			return c.Value, true
		}
	}
	return nil, false
}

// Conds top level conditions
func (filter Filter) Conds() []Cond {
	conds := make([]Cond, 0, len(filter.Exprs))
	for _, expr := range filter.Exprs {
		if c, ok := expr.(Cond); ok {
			conds = append(conds, c)
		}
	}
	return conds
}

// Groups top level logic groups
func (filter Filter) Groups() []Group {
	var groups []Group
	for _, expr := range filter.Exprs {
		if g, ok := expr.(Group); ok {
			groups = append(groups, g)
		}
	}
	return groups
}

// Clone deep copy filter
func (filter Filter) Clone() Filter {
	clone := Filter{Exprs: make([]Expression, len(filter.Exprs))}
	for idx, expr := range filter.Exprs {
		if g, ok := expr.(Group); ok {
			clone.Exprs[idx] = g.clone()
		} else {
			clone.Exprs[idx] = expr
		}
	}
	return clone
}

// Map render filter in the host filter dialect, groups are keyed by their position
//
//	{"UF_A": 5, ">UF_B": 10, "2": {"LOGIC": "OR", "0": {"UF_C": 1}, "1": {"UF_D": 2}}}
func (filter Filter) Map() map[string]interface{} {
	results := make(map[string]interface{}, len(filter.Exprs))
	for idx, expr := range filter.Exprs {
		switch v := expr.(type) {
		case Cond:
			results[v.Key()] = v.Value
		case Group:
			results[strconv.Itoa(idx)] = v.Map()
		}
	}
	return results
}

// Map render group in the host filter dialect
func (group Group) Map() map[string]interface{} {
	results := map[string]interface{}{"LOGIC": string(group.Logic)}
	for idx, sub := range group.Filters {
		results[strconv.Itoa(idx)] = sub.Map()
	}
	return results
}

func (group Group) clone() Group {
	filters := make([]Filter, len(group.Filters))
	for idx, sub := range group.Filters {
		filters[idx] = sub.Clone()
	}
	return Group{Logic: group.Logic, Filters: filters}
}
