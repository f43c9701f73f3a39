package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ValueTestSuite struct {
	suite.Suite
}

func mustFromAny(s *suite.Suite, x any) Value {
	v, err := FromAny(x)
	s.Require().NoError(err)
	return v
}

func (s *ValueTestSuite) TestFromAny() {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		in       any
		kind     Kind
		expected any
	}{
		{name: "nil", in: nil, kind: Null, expected: nil},
		{name: "bool", in: true, kind: Bool, expected: true},
		{name: "int", in: 42, kind: Int, expected: 42},
		{name: "uint64", in: uint64(7), kind: Int, expected: 7},
		{name: "float", in: 1.5, kind: Float, expected: 1.5},
		{name: "string", in: "postgres://localhost", kind: String, expected: "postgres://localhost"},
		{name: "timestamp", in: ts, kind: String, expected: "2024-05-01T12:00:00Z"},
		{name: "list", in: []any{"a", "b", "c"}, kind: List, expected: []any{"a", "b", "c"}},
		{name: "typed slice", in: []string{"a", "b"}, kind: List, expected: []any{"a", "b"}},
		{
			name:     "nested map",
			in:       map[string]any{"example": map[string]any{"port": 5432}},
			kind:     Map,
			expected: map[string]any{"example": map[string]any{"port": 5432}},
		},
		{
			name:     "non-string keys",
			in:       map[any]any{1: "one", "two": 2},
			kind:     Map,
			expected: map[string]any{"1": "one", "two": 2},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			v := mustFromAny(&s.Suite, tc.in)
			s.Equal(tc.kind, v.Kind())
			s.Equal(tc.expected, v.Interface())
		})
	}
}

func (s *ValueTestSuite) TestFromAnyUnsupported() {
	_, err := FromAny(map[string]any{"ch": make(chan int)})
	s.Require().Error(err)
	s.ErrorIs(err, ErrUnsupported)
	s.Contains(err.Error(), "ch")
}

func (s *ValueTestSuite) TestTruthy() {
	testCases := []struct {
		name     string
		v        Value
		expected bool
	}{
		{name: "null", v: Nil(), expected: false},
		{name: "false", v: OfBool(false), expected: false},
		{name: "true", v: OfBool(true), expected: true},
		{name: "zero int", v: OfInt(0), expected: false},
		{name: "int", v: OfInt(-1), expected: true},
		{name: "zero float", v: OfFloat(0), expected: false},
		{name: "NaN", v: OfFloat(math.NaN()), expected: false},
		{name: "empty string", v: OfString(""), expected: false},
		{name: "string", v: OfString("x"), expected: true},
		{name: "empty list", v: NewList(), expected: true},
		{name: "empty map", v: NewMap(), expected: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, tc.v.Truthy())
		})
	}
}

func (s *ValueTestSuite) TestCloneIsIndependent() {
	orig := mustFromAny(&s.Suite, map[string]any{
		"db":   map[string]any{"host": "localhost"},
		"list": []any{"a"},
	})
	cp := orig.Clone()

	db, _ := cp.Get("db")
	db.Set("host", OfString("remote"))

	host, _ := orig.Get("db")
	got, _ := host.Get("host")
	s.Equal("localhost", got.Str())
	s.False(orig.Equal(cp))
}

func (s *ValueTestSuite) TestEqualAcrossNumberKinds() {
	s.True(OfInt(3).Equal(OfFloat(3)))
	s.False(OfInt(3).Equal(OfString("3")))
	s.True(Nil().Equal(Value{}))
}

func (s *ValueTestSuite) TestAccessors() {
	v := mustFromAny(&s.Suite, map[string]any{"b": 1, "a": []any{"x", "y"}})

	s.Equal([]string{"a", "b"}, v.Keys())
	s.Equal(2, v.Len())

	list, ok := v.Get("a")
	s.Require().True(ok)
	item, ok := list.Index(1)
	s.Require().True(ok)
	s.Equal("y", item.Str())

	_, ok = list.Index(2)
	s.False(ok)
	_, ok = OfString("x").Get("a")
	s.False(ok)

	s.Equal("1", OfInt(1).String())
	s.Equal("2.5", OfFloat(2.5).String())
	s.Equal("null", Nil().String())
	s.Panics(func() { OfString("x").Set("k", Nil()) })
}

func TestValueSuite(t *testing.T) {
	suite.Run(t, new(ValueTestSuite))
}
