package sqlstore

import (
	"database/sql/driver"
	"reflect"
	"strings"
	"time"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/schema"
)

// Statement sql statement rendered by clauses
type Statement struct {
	strings.Builder
	Vars    []interface{}
	Dialect Dialect
}

// NewStatement empty statement of the dialect
func NewStatement(dialect Dialect) *Statement {
	if dialect == nil {
		dialect = &commonDialect{}
	}
	return &Statement{Dialect: dialect}
}

// WriteQuoted write quoted value
func (stmt *Statement) WriteQuoted(field string) {
	stmt.WriteString(stmt.Dialect.Quote(field))
}

// AddVar add var
func (stmt *Statement) AddVar(writer clause.Writer, vars ...interface{}) {
	for idx, v := range vars {
		if idx > 0 {
			writer.WriteByte(',')
		}
		stmt.Vars = append(stmt.Vars, bindValue(v))
		writer.WriteString(stmt.Dialect.BindVar(len(stmt.Vars)))
	}
}

// AddClause write clause name and clause
func (stmt *Statement) AddClause(c clause.Interface) {
	stmt.WriteByte(' ')
	stmt.WriteString(c.Name())
	stmt.WriteByte(' ')
	c.Build(stmt)
}

// SQL rendered statement
func (stmt *Statement) SQL() string {
	return stmt.String()
}

// bindValue values without a sql representation, lists and maps, are stored json encoded
func bindValue(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, []byte, time.Time, *time.Time, driver.Valuer:
		return v
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if data, err := schema.ToJSON(v); err == nil {
			return data
		}
	}
	return v
}
