package logger

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hlblock/hlorm/clause"
)

// Traced operations
const (
	OpGetList     = "getList"
	OpGetCount    = "getCount"
	OpAdd         = "add"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpGetFileList = "getFileList"
	OpSaveFile    = "saveFile"
)

// hiddenVar replaces filter and written values when values are hidden
type hiddenVar string

const hiddenValue hiddenVar = "?"

// Operation a data manager call, as seen by the builder or by a store
type Operation struct {
	Name   string
	Table  string
	Params clause.Parameters
	ID     interface{}
	Values map[string]interface{}
	// Statement native statement run by a store, SQL with placeholders or a mongo document
	Statement string
	Vars      []interface{}
	// NumericPlaceholder placeholder pattern of Statement, ? placeholders when nil
	NumericPlaceholder *regexp.Regexp
}

// Field structured trace field
type Field struct {
	Key   string
	Value interface{}
}

// Fields structured fields of the operation, empty parts are skipped.
// Filter values, written values and statement vars are replaced with ? when hideValues.
func (op Operation) Fields(hideValues bool) []Field {
	fields := []Field{{Key: "operation", Value: op.Name}}
	if op.Table != "" {
		fields = append(fields, Field{Key: "table", Value: op.Table})
	}

	params := op.Params
	if len(params.Select) > 0 {
		fields = append(fields, Field{Key: "select", Value: params.Select})
	}
	if params.Filter.Len() > 0 {
		filter := params.Filter
		if hideValues {
			filter = hideFilterValues(filter)
		}
		fields = append(fields, Field{Key: "filter", Value: filter.Map()})
	}
	if len(params.Group) > 0 {
		fields = append(fields, Field{Key: "group", Value: params.Group})
	}
	if len(params.Order) > 0 {
		fields = append(fields, Field{Key: "order", Value: op.order()})
	}
	if params.Limit > 0 {
		fields = append(fields, Field{Key: "limit", Value: params.Limit})
	}
	if params.Offset > 0 {
		fields = append(fields, Field{Key: "offset", Value: params.Offset})
	}

	if op.ID != nil {
		fields = append(fields, Field{Key: "id", Value: op.ID})
	}
	if op.Values != nil {
		values := op.Values
		if hideValues {
			values = make(map[string]interface{}, len(op.Values))
			for key := range op.Values {
				values[key] = hiddenValue
			}
		}
		fields = append(fields, Field{Key: "values", Value: values})
	}
	if op.Statement != "" {
		fields = append(fields, Field{Key: "statement", Value: op.statement(hideValues)})
	}
	return fields
}

// String text form, eg: getList table=articles filter={>UF_PRICE: 10} order=ID DESC limit=5
func (op Operation) String() string {
	text := op.Name
	if op.Table != "" {
		text += " table=" + op.Table
	}
	if details := explainOperation(op, false); details != "" {
		text += " " + details
	}
	return text
}

// explainOperation parameters of the operation without its name and table
func explainOperation(op Operation, hideValues bool) string {
	fields := op.Fields(hideValues)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		switch field.Key {
		case "operation", "table":
			continue
		case "filter":
			filter := op.Params.Filter
			if hideValues {
				filter = hideFilterValues(filter)
			}
			parts = append(parts, "filter="+ExplainFilter(filter))
		case "values":
			parts = append(parts, "values="+ExplainValues(field.Value.(map[string]interface{})))
		case "select", "group", "order":
			parts = append(parts, field.Key+"="+strings.Join(field.Value.([]string), ","))
		case "statement":
			parts = append(parts, "| "+field.Value.(string))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
	}
	return strings.Join(parts, " ")
}

func (op Operation) order() []string {
	order := make([]string, len(op.Params.Order))
	for idx, column := range op.Params.Order {
		order[idx] = column.Column + " " + column.Direction()
	}
	return order
}

func (op Operation) statement(hideValues bool) string {
	if hideValues || len(op.Vars) == 0 {
		return op.Statement
	}
	return ExplainSQL(op.Statement, op.NumericPlaceholder, `'`, op.Vars...)
}

func hideFilterValues(filter clause.Filter) clause.Filter {
	hidden := clause.Filter{Exprs: make([]clause.Expression, len(filter.Exprs))}
	for idx, expr := range filter.Exprs {
		switch v := expr.(type) {
		case clause.Cond:
			v.Value = hiddenValue
			hidden.Exprs[idx] = v
		case clause.Group:
			group := clause.Group{Logic: v.Logic, Filters: make([]clause.Filter, len(v.Filters))}
			for i, sub := range v.Filters {
				group.Filters[i] = hideFilterValues(sub)
			}
			hidden.Exprs[idx] = group
		default:
			hidden.Exprs[idx] = expr
		}
	}
	return hidden
}
