package clause

import (
	"strconv"
	"strings"

	"github.com/hlblock/hlorm/utils"
)

// Match evaluate filter against a host row, used by in memory data managers
func (filter Filter) Match(row map[string]interface{}) bool {
	for _, expr := range filter.Exprs {
		switch v := expr.(type) {
		case Cond:
			if !v.Match(row) {
				return false
			}
		case Group:
			if !v.Match(row) {
				return false
			}
		}
	}
	return true
}

// Match evaluate logic group against a host row
func (group Group) Match(row map[string]interface{}) bool {
	if len(group.Filters) == 0 {
		return true
	}

	for _, sub := range group.Filters {
		matched := sub.Match(row)
		if group.Logic == OR && matched {
			return true
		}
		if group.Logic != OR && !matched {
			return false
		}
	}
	return group.Logic != OR
}

// Match evaluate condition against a host row, multiple values stored in a row match when any element does
func (cond Cond) Match(row map[string]interface{}) bool {
	stored, ok := row[cond.Column]
	if !ok {
		stored = nil
	}

	switch cond.Op {
	case Not, NotIdentical:
		return !Cond{Op: Eq, Column: cond.Column, Value: cond.Value}.Match(row)
	}

	if values, ok := listValue(stored); ok {
		for _, v := range values {
			if cond.matchValue(v) {
				return true
			}
		}
		return false
	}
	return cond.matchValue(stored)
}

func (cond Cond) matchValue(stored interface{}) bool {
	if cond.Op == Eq {
		if values, ok := listValue(cond.Value); ok {
			for _, v := range values {
				if LooseEqual(stored, v) {
					return true
				}
			}
			return false
		}
		return LooseEqual(stored, cond.Value)
	}

	if stored == nil || cond.Value == nil {
		return false
	}

	switch cond.Op {
	case Gt:
		return Compare(stored, cond.Value) > 0
	case Gte:
		return Compare(stored, cond.Value) >= 0
	case Lt:
		return Compare(stored, cond.Value) < 0
	case Lte:
		return Compare(stored, cond.Value) <= 0
	case Like:
		return strings.Contains(strings.ToLower(utils.ToStringKey(stored)), strings.ToLower(utils.ToStringKey(cond.Value)))
	case StartsLike:
		return strings.HasPrefix(strings.ToLower(utils.ToStringKey(stored)), strings.ToLower(utils.ToStringKey(cond.Value)))
	case EndsLike:
		return strings.HasSuffix(strings.ToLower(utils.ToStringKey(stored)), strings.ToLower(utils.ToStringKey(cond.Value)))
	}
	return false
}

// LooseEqual compare values as numbers when both are numeric, as strings otherwise
func LooseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return utils.ToStringKey(a) == "" && utils.ToStringKey(b) == ""
	}
	if utils.IsNumeric(a) && utils.IsNumeric(b) {
		return toFloat(a) == toFloat(b)
	}
	return utils.ToStringKey(a) == utils.ToStringKey(b)
}

// Compare compare values as numbers when both are numeric, as strings otherwise
func Compare(a, b interface{}) int {
	if utils.IsNumeric(a) && utils.IsNumeric(b) {
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(utils.ToStringKey(a), utils.ToStringKey(b))
}

func toFloat(value interface{}) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(utils.ToStringKey(value)), 64)
	return f
}
