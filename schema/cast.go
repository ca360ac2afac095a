package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/now"
	"github.com/spf13/cast"

	"github.com/hlblock/hlorm/utils"
)

// DefaultDateFormat layout of stored dates, dd.mm.yyyy hh:mm:ss
const DefaultDateFormat = "02.01.2006 15:04:05"

// MoneyFormat number format of money casts
type MoneyFormat struct {
	Decimals  int
	Point     string
	Thousands string
}

// DefaultMoneyFormat two decimals, "." point and " " thousands separator
var DefaultMoneyFormat = MoneyFormat{Decimals: 2, Point: ".", Thousands: " "}

// CastOptions formatting options of a model passed to casters
type CastOptions struct {
	DateFormat string
	Money      MoneyFormat
}

// Caster converts a stored attribute value when it is read
type Caster interface {
	Cast(value interface{}, opts CastOptions) (interface{}, error)
}

// CasterFunc adapts a function to Caster
type CasterFunc func(value interface{}, opts CastOptions) (interface{}, error)

// Cast implements Caster
func (fc CasterFunc) Cast(value interface{}, opts CastOptions) (interface{}, error) {
	return fc(value, opts)
}

var casterMap = sync.Map{}

// RegisterCaster register caster
func RegisterCaster(name string, caster Caster) {
	casterMap.Store(strings.ToLower(name), caster)
}

// GetCaster get caster
func GetCaster(name string) (caster Caster, ok bool) {
	v, ok := casterMap.Load(strings.ToLower(name))
	if ok {
		caster, ok = v.(Caster)
	}
	return caster, ok
}

func init() {
	for _, name := range []string{"int", "integer"} {
		RegisterCaster(name, CasterFunc(castInt))
	}
	for _, name := range []string{"real", "float", "double"} {
		RegisterCaster(name, CasterFunc(castFloat))
	}
	for _, name := range []string{"bool", "boolean"} {
		RegisterCaster(name, CasterFunc(castBool))
	}
	for _, name := range []string{"array", "json"} {
		RegisterCaster(name, CasterFunc(castJSON))
	}
	for _, name := range []string{"date", "datetime"} {
		RegisterCaster(name, CasterFunc(func(value interface{}, opts CastOptions) (interface{}, error) {
			return AsDateTime(value, opts.DateFormat)
		}))
	}
	RegisterCaster("money", CasterFunc(castMoney))
	RegisterCaster("string", CasterFunc(func(value interface{}, _ CastOptions) (interface{}, error) {
		return cast.ToStringE(value)
	}))
	RegisterCaster("object", CasterFunc(castObject))
	RegisterCaster("collection", CasterFunc(castCollection))
	RegisterCaster("array_collection", CasterFunc(func(value interface{}, _ CastOptions) (interface{}, error) {
		return utils.ToSlice(value), nil
	}))
	RegisterCaster("timestamp", CasterFunc(func(value interface{}, opts CastOptions) (interface{}, error) {
		t, err := AsDateTime(value, opts.DateFormat)
		if err != nil {
			return nil, err
		}
		return t.Unix(), nil
	}))
}

// IsDateCast date and datetime casts convert values on write
func IsDateCast(name string) bool {
	switch strings.ToLower(name) {
	case "date", "datetime":
		return true
	}
	return false
}

// IsJSONCast json, array, object and collection casts are encoded on write
func IsJSONCast(name string) bool {
	switch strings.ToLower(name) {
	case "json", "array", "object", "collection":
		return true
	}
	return false
}

// CastValue cast value with the named caster, nil values and unknown casts are returned as is
func CastValue(name string, value interface{}, opts CastOptions) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	caster, ok := GetCaster(name)
	if !ok {
		return value, nil
	}
	return caster.Cast(value, opts)
}

func castInt(value interface{}, _ CastOptions) (interface{}, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return int64(0), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return int64(0), fmt.Errorf("cast %q to int: %w", s, err)
		}
		return int64(f), nil
	}
	return cast.ToInt64E(value)
}

func castFloat(value interface{}, _ CastOptions) (interface{}, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return float64(0), nil
	}
	return cast.ToFloat64E(value)
}

func castBool(value interface{}, _ CastOptions) (interface{}, error) {
	if s, ok := value.(string); ok {
		if b, err := cast.ToBoolE(s); err == nil {
			return b, nil
		}
		return !utils.IsEmpty(s), nil
	}
	if b, err := cast.ToBoolE(value); err == nil {
		return b, nil
	}
	return !utils.IsEmpty(value), nil
}

func castMoney(value interface{}, opts CastOptions) (interface{}, error) {
	f, err := castFloat(value, opts)
	if err != nil {
		return nil, err
	}
	return opts.Money.Format(f.(float64)), nil
}

func castJSON(value interface{}, _ CastOptions) (interface{}, error) {
	return FromJSON(value)
}

func castObject(value interface{}, _ CastOptions) (interface{}, error) {
	decoded, err := FromJSON(value)
	if err != nil {
		return nil, err
	}
	if decoded == nil {
		return map[string]interface{}{}, nil
	}
	if m, ok := decoded.(map[string]interface{}); ok {
		return m, nil
	}

	result := map[string]interface{}{}
	for idx, v := range utils.ToSlice(decoded) {
		result[strconv.Itoa(idx)] = v
	}
	return result, nil
}

func castCollection(value interface{}, _ CastOptions) (interface{}, error) {
	decoded, err := FromJSON(value)
	if err != nil {
		return nil, err
	}

	if m, ok := decoded.(map[string]interface{}); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		items := make([]interface{}, 0, len(m))
		for _, k := range keys {
			items = append(items, m[k])
		}
		return items, nil
	}
	return utils.ToSlice(decoded), nil
}

// ToJSON encode value for storage
func ToJSON(value interface{}) (string, error) {
	bytes, err := json.Marshal(value)
	return string(bytes), err
}

// FromJSON decode a stored json value, already decoded values are returned as is
func FromJSON(value interface{}) (interface{}, error) {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return value, nil
	}

	if len(data) == 0 {
		return nil, nil
	}

	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONB value: %w", err)
	}
	return result, nil
}

// Format formats number like php number_format
func (f MoneyFormat) Format(number float64) string {
	decimals := f.Decimals
	if decimals < 0 {
		decimals = 0
	}

	negative := number < 0
	formatted := strconv.FormatFloat(math.Abs(number), 'f', decimals, 64)

	intPart, fracPart := formatted, ""
	if idx := strings.IndexByte(formatted, '.'); idx >= 0 {
		intPart, fracPart = formatted[:idx], formatted[idx+1:]
	}

	var buf strings.Builder
	if negative && strings.Trim(formatted, "0.") != "" {
		buf.WriteByte('-')
	}
	for idx, r := range intPart {
		if idx > 0 && (len(intPart)-idx)%3 == 0 {
			buf.WriteString(f.Thousands)
		}
		buf.WriteRune(r)
	}
	if fracPart != "" {
		buf.WriteString(f.Point)
		buf.WriteString(fracPart)
	}
	return buf.String()
}

var standardDate = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

// AsDateTime parse value into time, accepts time.Time, unix timestamps, Y-m-d dates and the given layout
func AsDateTime(value interface{}, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultDateFormat
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *v, nil
	case []byte:
		value = string(v)
	}

	if utils.IsNumeric(value) {
		seconds, err := cast.ToInt64E(value)
		if err != nil {
			f, ferr := cast.ToFloat64E(value)
			if ferr != nil {
				return time.Time{}, err
			}
			seconds = int64(f)
		}
		return time.Unix(seconds, 0), nil
	}

	s, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported date value %T", value)
	}
	s = strings.TrimSpace(s)

	if standardDate.MatchString(s) {
		t, err := time.ParseInLocation("2006-1-2", s, time.Local)
		if err != nil {
			return time.Time{}, err
		}
		return now.With(t).BeginningOfDay(), nil
	}

	if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
		return t, nil
	}

	config := &now.Config{TimeLocation: time.Local, TimeFormats: []string{layout}}
	return config.Parse(s)
}

// FromDateTime format value with the layout for storage
func FromDateTime(value interface{}, layout string) (string, error) {
	if layout == "" {
		layout = DefaultDateFormat
	}
	t, err := AsDateTime(value, layout)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}
