// Package filterexpr parses textual filter expressions into builder conditions.
//
//	name = "ann" AND sort >= 10 AND (title ~ "go" OR id = [1, 2])
package filterexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/hlblock/hlorm"
	"github.com/hlblock/hlorm/clause"
)

// ErrUnsupportedNesting groups nested deeper than the host filter allows
var ErrUnsupportedNesting = errors.New("unsupported group nesting")

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NULL|TRUE|FALSE)\b`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Operator", Pattern: `!=|<=|>=|=%|%=|=!|[=!<>~]`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `[(),\[\]]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Expression alternatives joined with OR
type Expression struct {
	Alternatives []*Conjunction `@@ ( "OR" @@ )*`
}

// Conjunction terms joined with AND
type Conjunction struct {
	Terms []*Term `@@ ( "AND" @@ )*`
}

// Term condition or parenthesized expression
type Term struct {
	Cond  *Cond       `  @@`
	Group *Expression `| "(" @@ ")"`
}

// Cond column compared with a value
type Cond struct {
	Column   string `@Ident`
	Operator string `@Operator`
	Value    *Value `@@`
}

// Value literal
type Value struct {
	String *string  `  @String`
	Number *string  `| @Number`
	Null   bool     `| @"NULL"`
	Bool   *Boolean `| @("TRUE" | "FALSE")`
	Empty  bool     `| @("[" "]")`
	List   []*Value `| "[" @@ ( "," @@ )* "]"`
}

// Boolean captured boolean literal
type Boolean bool

// Capture capture literal case insensitively
func (b *Boolean) Capture(values []string) error {
	*b = Boolean(strings.EqualFold(values[0], "true"))
	return nil
}

var parser = participle.MustBuild[Expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)

// Parse parse expression
func Parse(input string) (*Expression, error) {
	return parser.ParseString("", input)
}

// Interface converts the literal into a go value, integral numbers become int64
func (v *Value) Interface() interface{} {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		if n, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Bool != nil:
		return bool(*v.Bool)
	case v.Empty:
		return []interface{}{}
	case v.List != nil:
		values := make([]interface{}, len(v.List))
		for idx, item := range v.List {
			values[idx] = item.Interface()
		}
		return values
	}
	return nil
}

// Key condition key in the host filter dialect, eg: >=sort
func (c *Cond) Key() (string, error) {
	op, err := clause.ParseOperator(c.Operator)
	if err != nil {
		return "", err
	}
	return op.Prefix() + c.Column, nil
}

func (c *Conjunction) flat() (map[string]interface{}, error) {
	conds := make(map[string]interface{}, len(c.Terms))
	for _, term := range c.Terms {
		if term.Cond == nil {
			return nil, fmt.Errorf("%w: groups inside OR alternatives", ErrUnsupportedNesting)
		}
		key, err := term.Cond.Key()
		if err != nil {
			return nil, err
		}
		conds[key] = term.Cond.Value.Interface()
	}
	return conds, nil
}

// Apply parse input and add its conditions to the builder. The host filter holds a single OR group,
// so at most one parenthesized OR expression is accepted.
func Apply(builder *hlorm.Builder, input string) (*hlorm.Builder, error) {
	if strings.TrimSpace(input) == "" {
		return builder, nil
	}

	expr, err := Parse(input)
	if err != nil {
		return builder, err
	}

	if len(expr.Alternatives) > 1 {
		return builder, addOrGroup(builder, expr)
	}

	var grouped bool
	for _, term := range expr.Alternatives[0].Terms {
		switch {
		case term.Cond != nil:
			key, err := term.Cond.Key()
			if err != nil {
				return builder, err
			}
			builder.Where(map[string]interface{}{key: term.Cond.Value.Interface()})
		case len(term.Group.Alternatives) == 1:
			conds, err := term.Group.Alternatives[0].flat()
			if err != nil {
				return builder, err
			}
			builder.Where(conds)
		default:
			if grouped {
				return builder, fmt.Errorf("%w: more than one OR group", ErrUnsupportedNesting)
			}
			grouped = true
			if err := addOrGroup(builder, term.Group); err != nil {
				return builder, err
			}
		}
	}
	return builder, builder.Error
}

func addOrGroup(builder *hlorm.Builder, expr *Expression) error {
	for _, alternative := range expr.Alternatives {
		conds, err := alternative.flat()
		if err != nil {
			return err
		}
		builder.WhereGroup(string(clause.OR), conds)
	}
	return builder.Error
}
