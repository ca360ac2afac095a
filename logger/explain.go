package logger

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/hlblock/hlorm/clause"
)

const tmFmtWithMS = "2006-01-02 15:04:05.999"

func isPrintable(s []byte) bool {
	for _, r := range s {
		if !unicode.IsPrint(rune(r)) {
			return false
		}
	}
	return true
}

// ExplainSQL generate SQL string with given parameters, the generated SQL is expected to be used in logger, execute it might introduce a SQL injection vulnerability
func ExplainSQL(sql string, numericPlaceholder *regexp.Regexp, escaper string, vars ...interface{}) string {
	formatted := make([]string, len(vars))
	for idx, v := range vars {
		formatted[idx] = explainVar(v, escaper)
	}

	if numericPlaceholder == nil {
		var idx int
		var buf strings.Builder
		for _, c := range []byte(sql) {
			if c == '?' && len(formatted) > idx {
				buf.WriteString(formatted[idx])
				idx++
				continue
			}
			buf.WriteByte(c)
		}
		return buf.String()
	}

	return numericPlaceholder.ReplaceAllStringFunc(sql, func(placeholder string) string {
		matches := numericPlaceholder.FindStringSubmatch(placeholder)
		if len(matches) < 2 {
			return placeholder
		}
		n, err := strconv.Atoi(matches[1])
		if err != nil || n < 1 || n > len(formatted) {
			return placeholder
		}
		return formatted[n-1]
	})
}

func explainVar(v interface{}, escaper string) string {
	if valuer, ok := v.(driver.Valuer); ok {
		v, _ = valuer.Value()
	}

	quote := func(s string) string {
		return escaper + strings.ReplaceAll(s, escaper, escaper+escaper) + escaper
	}

	switch v := v.(type) {
	case hiddenVar:
		return string(v)
	case nil:
		return "NULL"
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return quote("0000-00-00 00:00:00")
		}
		return quote(v.Format(tmFmtWithMS))
	case *time.Time:
		if v == nil {
			return "NULL"
		}
		return explainVar(*v, escaper)
	case []byte:
		if isPrintable(v) {
			return quote(string(v))
		}
		return quote("<binary>")
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return quote(v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "NULL"
		}
		return explainVar(rv.Elem().Interface(), escaper)
	case reflect.String:
		return quote(rv.String())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return explainVar(rv.Bytes(), escaper)
		}
		items := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = explainVar(rv.Index(i).Interface(), escaper)
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return quote(fmt.Sprint(v))
}

// ExplainFilter render filter keeping its order, eg: {UF_A: 5, >UF_B: 10, OR[{UF_C: 1}, {UF_D: 2}]}
func ExplainFilter(filter clause.Filter) string {
	var buf strings.Builder
	buf.WriteByte('{')
	for idx, expr := range filter.Exprs {
		if idx > 0 {
			buf.WriteString(", ")
		}
		switch v := expr.(type) {
		case clause.Cond:
			buf.WriteString(v.Key())
			buf.WriteString(": ")
			buf.WriteString(explainVar(v.Value, `"`))
		case clause.Group:
			buf.WriteString(string(v.Logic))
			buf.WriteByte('[')
			for i, sub := range v.Filters {
				if i > 0 {
					buf.WriteString(", ")
				}
				buf.WriteString(ExplainFilter(sub))
			}
			buf.WriteByte(']')
		}
	}
	buf.WriteByte('}')
	return buf.String()
}

// ExplainValues render written values with sorted keys, eg: {UF_NAME: "x", UF_SORT: 10}
func ExplainValues(values map[string]interface{}) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteByte('{')
	for idx, key := range keys {
		if idx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(explainVar(values[key], `"`))
	}
	buf.WriteByte('}')
	return buf.String()
}
