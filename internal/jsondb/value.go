// Converts column values to their canonical string form for comparison.

package jsondb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Stringify converts a column value to the string used for indexing and
// comparison.
//
// Conversion rules:
//
//	string       → as is
//	json.Number  → its literal ("1", "1.50")
//	integers     → base 10
//	floats       → shortest representation, whole numbers without decimals
//	bool         → "true" / "false"
//	nil          → ""
//	anything else → fmt.Sprint
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// Equal reports whether two column values compare equal.
//
// All value comparisons in the package go through Equal so a typed
// comparison mode only has to change this function.
func Equal(a, b any) bool {
	return Stringify(a) == Stringify(b)
}

func formatFloat(f float64, bitSize int) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
