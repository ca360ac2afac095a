package clause

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedOperator unsupported operator
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrUnsupportedLogic unsupported logic, only AND and OR are allowed
	ErrUnsupportedLogic = errors.New("unsupported logic")
)

// Operator filter operator, used as a prefix of the compiled column
type Operator string

const (
	Gt           Operator = ">"
	Lt           Operator = "<"
	Lte          Operator = "<="
	StartsLike   Operator = "=%"
	EndsLike     Operator = "%="
	Gte          Operator = ">="
	NotIdentical Operator = "=!"
	Eq           Operator = "="
	Not          Operator = "!"
	Like         Operator = "~"
)

// Operators all supported operators
var Operators = []Operator{Gt, Lt, Lte, StartsLike, EndsLike, Gte, NotIdentical, Eq, Not, Like}

// mutators aliases rewritten to supported operators
var mutators = map[string]Operator{
	"!=": Not,
}

// prefixes operator prefixes by descending length, so "<=" is found before "<"
var prefixes = []string{"!=", "<=", ">=", "=%", "%=", "=!", ">", "<", "=", "!", "~"}

// ParseOperator resolve operator token, applying mutator aliases
func ParseOperator(token string) (Operator, error) {
	token = strings.TrimSpace(token)
	if op, ok := mutators[token]; ok {
		return op, nil
	}
	for _, op := range Operators {
		if string(op) == token {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, token)
}

// IsOperator whether token is an operator or an operator alias
func IsOperator(token string) bool {
	_, err := ParseOperator(token)
	return err == nil
}

// SplitKey split a filter key into its operator and column, defaults to Eq
func SplitKey(key string) (Operator, string) {
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			op, _ := ParseOperator(prefix)
			return op, key[len(prefix):]
		}
	}
	return Eq, key
}

// Prefix prefix of compiled columns, the default equals operator compiles to the plain column
func (op Operator) Prefix() string {
	if op == Eq {
		return ""
	}
	return string(op)
}

// IsDefault whether operator is the default equals operator
func (op Operator) IsDefault() bool {
	return op == Eq
}

// Logic logic of filter groups
type Logic string

const (
	AND Logic = "AND"
	OR  Logic = "OR"
)

// ParseLogic resolve logic token
func ParseLogic(token string) (Logic, error) {
	switch Logic(strings.ToUpper(strings.TrimSpace(token))) {
	case AND:
		return AND, nil
	case OR:
		return OR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLogic, token)
}
