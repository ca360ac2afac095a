package clause

import (
	"strings"

	"github.com/hlblock/hlorm/utils"
)

// LikeEscape escape character of LIKE patterns
const LikeEscape = "!"

// likeEscaper escape the wildcards of LIKE patterns, [ is a wildcard for sqlserver
var likeEscaper = strings.NewReplacer(LikeEscape, LikeEscape+LikeEscape, "%", LikeEscape+"%", "_", LikeEscape+"_", "[", LikeEscape+"[")

// Where where clause
type Where struct {
	Filter Filter
}

// Name where clause name
func (where Where) Name() string {
	return "WHERE"
}

// Build build where clause
func (where Where) Build(builder Builder) {
	where.Filter.Build(builder)
}

// Build build filter, top level entries are joined with AND
func (filter Filter) Build(builder Builder) {
	if len(filter.Exprs) == 0 {
		builder.WriteString("1 = 1")
		return
	}

	for idx, expr := range filter.Exprs {
		if idx > 0 {
			builder.WriteString(" AND ")
		}
		expr.Build(builder)
	}
}

// Build build logic group
func (group Group) Build(builder Builder) {
	joinCond := " AND "
	if group.Logic == OR {
		joinCond = " OR "
	}

	builder.WriteByte('(')
	for idx, sub := range group.Filters {
		if idx > 0 {
			builder.WriteString(joinCond)
		}
		if sub.Len() > 1 {
			builder.WriteByte('(')
			sub.Build(builder)
			builder.WriteByte(')')
		} else {
			sub.Build(builder)
		}
	}
	if len(group.Filters) == 0 {
		builder.WriteString("1 = 1")
	}
	builder.WriteByte(')')
}

// Build build condition
func (cond Cond) Build(builder Builder) {
	if cond.Value == nil {
		builder.WriteQuoted(cond.Column)
		switch cond.Op {
		case Not, NotIdentical:
			builder.WriteString(" IS NOT NULL")
		default:
			builder.WriteString(" IS NULL")
		}
		return
	}

	if values, ok := listValue(cond.Value); ok {
		switch cond.Op {
		case Eq, Not, NotIdentical:
			if len(values) == 0 {
				if cond.Op == Eq {
					builder.WriteString("1 = 0")
				} else {
					builder.WriteString("1 = 1")
				}
				return
			}

			builder.WriteQuoted(cond.Column)
			if cond.Op == Eq {
				builder.WriteString(" IN (")
			} else {
				builder.WriteString(" NOT IN (")
			}
			for idx, v := range values {
				if idx > 0 {
					builder.WriteByte(',')
				}
				builder.AddVar(builder, v)
			}
			builder.WriteByte(')')
			return
		}
	}

	builder.WriteQuoted(cond.Column)
	switch cond.Op {
	case Eq:
		builder.WriteString(" = ")
	case Not, NotIdentical:
		builder.WriteString(" <> ")
	case Gt, Gte, Lt, Lte:
		builder.WriteString(" " + string(cond.Op) + " ")
	case Like:
		buildLike(builder, "%", cond.Value, "%")
		return
	case StartsLike:
		buildLike(builder, "", cond.Value, "%")
		return
	case EndsLike:
		buildLike(builder, "%", cond.Value, "")
		return
	}
	builder.AddVar(builder, cond.Value)
}

// buildLike match value literally, only the added prefix and suffix are wildcards
func buildLike(builder Builder, prefix string, value interface{}, suffix string) {
	builder.WriteString(" LIKE ")
	builder.AddVar(builder, prefix+likeEscaper.Replace(utils.ToStringKey(value))+suffix)
	builder.WriteString(" ESCAPE '" + LikeEscape + "'")
}

func listValue(value interface{}) ([]interface{}, bool) {
	switch value.(type) {
	case nil, string, []byte:
		return nil, false
	}

	values := utils.ToSlice(value)
	if len(values) == 1 && utils.AssertEqual(values[0], value) {
		return nil, false
	}
	return values, true
}
