package valueobject

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CoerceDecimal converts a loosely-typed numeric value into a decimal amount.
// Strings may carry currency symbols, grouping separators, or whitespace;
// every character that is not a digit, '.', or '-' is stripped before
// parsing. Anything unparseable or non-finite coerces to zero. It never
// returns an error: upstream data is assumed imperfect and the engine's job
// is best-effort reconciliation, not gatekeeping.
func CoerceDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(val)
	case float32:
		return CoerceDecimal(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		return parseLooseDecimal(val.String())
	case string:
		return parseLooseDecimal(val)
	default:
		return decimal.Zero
	}
}

// parseLooseDecimal strips everything but digits, '.', and '-' and parses
// the remainder, falling back to zero.
func parseLooseDecimal(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceInt converts a loosely-typed value into an int, reporting whether a
// finite numeric value was actually present. Used for sequence numbers where
// absence must be distinguished from zero.
func CoerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), true
		}
		if f, err := val.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f), true
		}
		return 0, false
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return int(d.IntPart()), true
	default:
		return 0, false
	}
}

// dateLayouts are tried in order when coercing a date from a string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceTime converts an ISO-8601 string or a native time value into a
// time.Time, reporting whether the conversion succeeded.
func CoerceTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val, true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return *val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
