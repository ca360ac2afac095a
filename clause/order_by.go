package clause

import "strings"

// OrderByColumn order by column
type OrderByColumn struct {
	Column string
	Desc   bool
}

// Direction ASC or DESC
func (column OrderByColumn) Direction() string {
	if column.Desc {
		return "DESC"
	}
	return "ASC"
}

// ParseDirection whether direction token means descending order
func ParseDirection(direction string) bool {
	return strings.EqualFold(strings.TrimSpace(direction), "desc")
}

// OrderBy order by clause
type OrderBy struct {
	Columns []OrderByColumn
}

// Name order by clause name
func (orderBy OrderBy) Name() string {
	return "ORDER BY"
}

// Build build order by clause
func (orderBy OrderBy) Build(builder Builder) {
	for idx, column := range orderBy.Columns {
		if idx > 0 {
			builder.WriteByte(',')
		}

		builder.WriteQuoted(column.Column)
		if column.Desc {
			builder.WriteString(" DESC")
		}
	}
}
