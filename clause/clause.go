package clause

// Writer writer interface
type Writer interface {
	WriteByte(byte) error
	WriteString(string) (int, error)
}

// Builder builder interface, implemented by statement renderers of sql data managers
type Builder interface {
	Writer
	WriteQuoted(field string)
	AddVar(Writer, ...interface{})
}

// Expression expression interface
type Expression interface {
	Build(builder Builder)
}

// Interface clause interface
type Interface interface {
	Name() string
	Build(Builder)
}

// Parameters query parameters passed to data managers, limit and offset are only applied when positive
type Parameters struct {
	Select []string
	Filter Filter
	Group  []string
	Order  []OrderByColumn
	Limit  int
	Offset int
}

// Map render parameters in the host list dialect, only non empty parts are kept
func (p Parameters) Map() map[string]interface{} {
	results := map[string]interface{}{}
	if len(p.Select) > 0 {
		results["select"] = p.Select
	}
	if p.Filter.Len() > 0 {
		results["filter"] = p.Filter.Map()
	}
	if len(p.Group) > 0 {
		results["group"] = p.Group
	}
	if len(p.Order) > 0 {
		order := make(map[string]string, len(p.Order))
		for _, column := range p.Order {
			order[column.Column] = column.Direction()
		}
		results["order"] = order
	}
	if p.Limit > 0 {
		results["limit"] = p.Limit
	}
	if p.Offset > 0 {
		results["offset"] = p.Offset
	}
	return results
}

// Clone deep copy parameters
func (p Parameters) Clone() Parameters {
	clone := p
	clone.Select = append([]string(nil), p.Select...)
	clone.Group = append([]string(nil), p.Group...)
	clone.Order = append([]OrderByColumn(nil), p.Order...)
	clone.Filter = p.Filter.Clone()
	return clone
}
