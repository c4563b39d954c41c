package tabular

import (
	"cmp"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Compare orders two field values. Missing values sort below any defined
// value. When date is set and both values parse as timestamps they compare as
// instants. Numbers compare numerically, including against numeric strings.
func Compare(a, b any, date bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		if date {
			ta, errA := parseTimestamp(as)
			tb, errB := parseTimestamp(bs)
			if errA == nil && errB == nil {
				return ta.Compare(tb)
			}
		}
		return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return cmp.Compare(boolRank(ab), boolRank(bb))
		}
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return cmp.Compare(af, bf)
	}
	// A number against a string compares numerically when the string parses,
	// otherwise numbers order before text.
	if aNum && bStr {
		if f, err := strconv.ParseFloat(strings.TrimSpace(bs), 64); err == nil {
			return cmp.Compare(af, f)
		}
		return -1
	}
	if bNum && aStr {
		if f, err := strconv.ParseFloat(strings.TrimSpace(as), 64); err == nil {
			return cmp.Compare(f, bf)
		}
		return 1
	}

	sa, _ := toString(a)
	sb, _ := toString(b)
	return strings.Compare(strings.ToLower(sa), strings.ToLower(sb))
}

// Equal reports whether a field value matches a filter value after both are
// coerced to strings. Missing values never match.
func Equal(v any, want string) bool {
	got, ok := toString(v)
	if !ok {
		return false
	}
	return got == want
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case json.Number:
		return val.String(), true
	case time.Time:
		return val.UTC().Format(time.RFC3339), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
