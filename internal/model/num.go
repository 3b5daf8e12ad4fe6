package model

import (
	"encoding/json"
	"math"
	"strings"
)

// Num reads key from row as a float64. Missing keys, nil, non-numeric values
// and non-finite numbers all read as 0.
func Num(row Row, key string) float64 {
	if row == nil {
		return 0
	}
	v, ok := Float(row[key])
	if !ok {
		return 0
	}
	return v
}

// Float converts a weakly typed value to a finite float64. Strings are not
// numbers; json.Number is.
func Float(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Truthy reports whether a weakly typed flag is set. nil, false, numeric 0
// and the strings "", "0", "null" and "undefined" (trimmed, any case) are
// unset; everything else is set.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "null", "undefined":
			return false
		}
		return true
	}
	if f, ok := Float(v); ok {
		return f != 0
	}
	return true
}
