package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileWithLineNum(t *testing.T) {
	t.Log("file line with num: ", FileWithLineNum())
}

func TestToStringKey(t *testing.T) {
	five := 5
	cases := []struct {
		name   string
		values []interface{}
		want   string
	}{
		{"int", []interface{}{5}, "5"},
		{"int64", []interface{}{int64(5)}, "5"},
		{"string", []interface{}{"5"}, "5"},
		{"float", []interface{}{5.0}, "5"},
		{"pointer", []interface{}{&five}, "5"},
		{"nil", []interface{}{nil}, ""},
		{"many", []interface{}{1, "a", uint(2)}, "1_a_2"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ToStringKey(c.values...))
		})
	}
}

func TestIsNumeric(t *testing.T) {
	for _, v := range []interface{}{1, int64(2), 3.5, "4", " 5 ", "6.25", "-7"} {
		assert.True(t, IsNumeric(v), "%#v should be numeric", v)
	}
	for _, v := range []interface{}{nil, "", "abc", "5a", true, []int{1}} {
		assert.False(t, IsNumeric(v), "%#v should not be numeric", v)
	}
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []interface{}{nil, "", "0", 0, 0.0, false, []int{}, map[string]int{}} {
		assert.True(t, IsEmpty(v), "%#v should be empty", v)
	}
	for _, v := range []interface{}{"a", 1, true, []int{1}} {
		assert.False(t, IsEmpty(v), "%#v should not be empty", v)
	}
}

func TestToSlice(t *testing.T) {
	assert.Nil(t, ToSlice(nil))
	assert.Equal(t, []interface{}{1, 2}, ToSlice([]int{1, 2}))
	assert.Equal(t, []interface{}{"a"}, ToSlice("a"))
	assert.Equal(t, []interface{}{[]byte("ab")}, ToSlice([]byte("ab")))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []interface{}{1, 2, 3}, Unique([]interface{}{1, 2, "1", 3, int64(2)}))
}

func TestContainsAndAssertEqual(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.True(t, AssertEqual([]interface{}{1}, []interface{}{1}))
	assert.False(t, AssertEqual(1, "1"))
}
