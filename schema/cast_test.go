package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastValue(t *testing.T) {
	opts := CastOptions{DateFormat: DefaultDateFormat, Money: DefaultMoneyFormat}

	cases := []struct {
		name  string
		cast  string
		value interface{}
		want  interface{}
	}{
		{"int from string", "int", "42", int64(42)},
		{"integer from float string", "integer", "42.9", int64(42)},
		{"int from float", "int", 7.0, int64(7)},
		{"float", "float", "1.5", 1.5},
		{"double", "double", 3, float64(3)},
		{"string", "string", 12, "12"},
		{"bool true", "bool", "1", true},
		{"bool false", "boolean", "0", false},
		{"bool non empty", "bool", "yes", true},
		{"money", "money", 1234567.891, "1 234 567.89"},
		{"money string", "money", "10", "10.00"},
		{"json", "json", `{"a":1}`, map[string]interface{}{"a": float64(1)}},
		{"array", "array", `[1,2]`, []interface{}{float64(1), float64(2)}},
		{"object from list", "object", `["x"]`, map[string]interface{}{"0": "x"}},
		{"collection from map", "collection", `{"b":2,"a":1}`, []interface{}{float64(1), float64(2)}},
		{"array collection", "array_collection", []int{1, 2}, []interface{}{1, 2}},
		{"unknown", "unknown", "v", "v"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := CastValue(c.cast, c.value, opts)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCastValueNil(t *testing.T) {
	for _, name := range []string{"int", "money", "bool", "json", "date"} {
		got, err := CastValue(name, nil, CastOptions{})
		assert.NoError(t, err)
		assert.Nil(t, got, name)
	}
}

func TestRegisterCaster(t *testing.T) {
	RegisterCaster("Upper", CasterFunc(func(value interface{}, _ CastOptions) (interface{}, error) {
		return "up:" + value.(string), nil
	}))

	got, err := CastValue("upper", "x", CastOptions{})
	require.NoError(t, err)
	assert.Equal(t, "up:x", got)
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		format MoneyFormat
		value  float64
		want   string
	}{
		{DefaultMoneyFormat, 0, "0.00"},
		{DefaultMoneyFormat, 999.999, "1 000.00"},
		{DefaultMoneyFormat, -1234.5, "-1 234.50"},
		{MoneyFormat{Decimals: 0, Thousands: ","}, 1234567, "1,234,567"},
		{MoneyFormat{Decimals: 3, Point: ",", Thousands: "."}, 1234.5, "1.234,500"},
		{DefaultMoneyFormat, -0.001, "0.00"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.format.Format(c.value))
	}
}

func TestAsDateTime(t *testing.T) {
	expected := time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

	got, err := AsDateTime("15.03.2024 10:30:00", DefaultDateFormat)
	require.NoError(t, err)
	assert.True(t, expected.Equal(got))

	got, err = AsDateTime("2024-03-15", DefaultDateFormat)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local).Equal(got))

	got, err = AsDateTime(expected.Unix(), DefaultDateFormat)
	require.NoError(t, err)
	assert.True(t, expected.Equal(got))

	got, err = AsDateTime(expected, "")
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	_, err = AsDateTime(struct{}{}, "")
	assert.Error(t, err)
}

func TestFromDateTime(t *testing.T) {
	value := time.Date(2024, 3, 15, 10, 30, 5, 0, time.Local)

	got, err := FromDateTime(value, "")
	require.NoError(t, err)
	assert.Equal(t, "15.03.2024 10:30:05", got)

	got, err = FromDateTime("2024-03-15", "2006-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got)
}

func TestJSONHelpers(t *testing.T) {
	encoded, err := ToJSON([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", encoded)

	decoded, err := FromJSON(encoded)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float64(1), float64(2)}, decoded)

	_, err = FromJSON("{broken")
	assert.Error(t, err)

	assert.True(t, IsJSONCast("Collection"))
	assert.False(t, IsJSONCast("int"))
	assert.True(t, IsDateCast("datetime"))
}
