package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the month-first layout used when dates leave the pipeline.
const DateLayout = "01/02/2006"

var ErrNotNumeric = errors.New("value is not numeric")

var ErrNotDate = errors.New("value is not a recognised date")

var (
	dayFirstLayouts   = []string{"02/01/2006", "2/1/2006", "02-01-2006"}
	monthFirstLayouts = []string{"01/02/2006", "1/2/2006", "01-02-2006"}
	isoLayouts        = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}
)

// Normalize turns decoder output into the value set a Column holds.
func Normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	default:
		return v
	}
}

// InferKind picks the narrowest kind that holds every non-nil value.
func InferKind(values []any) Kind {
	var strs, floats, ints, bools, dates, total int
	for _, v := range values {
		switch v.(type) {
		case nil:
			continue
		case string:
			strs++
		case float64:
			floats++
		case int64:
			ints++
		case bool:
			bools++
		case time.Time:
			dates++
		}
		total++
	}
	switch {
	case total == 0:
		return String
	case ints == total:
		return Int
	case ints+floats == total:
		return Float
	case bools == total:
		return Bool
	case dates == total:
		return Date
	default:
		return String
	}
}

func coerceTo(kind Kind, values []any) []any {
	for i, v := range values {
		if v == nil {
			continue
		}
		switch kind {
		case Float:
			if n, ok := v.(int64); ok {
				values[i] = float64(n)
			}
		case String:
			if _, ok := v.(string); !ok {
				values[i] = Format(v)
			}
		}
	}
	return values
}

// KeyOf gives the canonical string form used to match key values across tables,
// so that 1090, 1090.0 and "1090" all join.
func KeyOf(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !strings.ContainsAny(s, "eE") && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return s
	default:
		return Format(x)
	}
}

// Format renders a value the way it is written to CSV files and spreadsheet cells.
func Format(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(DateLayout)
	default:
		return fmt.Sprint(x)
	}
}

// ToFloat coerces numbers and numeric strings. Strings go through decimal parsing.
func ToFloat(v any) (float64, error) {
	switch x := Normalize(v).(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, x)
		}
		return d.InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("%w: %v (%T)", ErrNotNumeric, v, v)
	}
}

// ParseDate accepts slash or dash separated dates and ISO forms. With dayFirst the
// day/month/year reading is tried before month/day/year; an impossible reading
// falls through to the next layout.
func ParseDate(v any, dayFirst bool) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	s := strings.TrimSpace(Format(v))
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrNotDate)
	}
	layouts := make([]string, 0, len(dayFirstLayouts)+len(monthFirstLayouts)+len(isoLayouts))
	if dayFirst {
		layouts = append(append(layouts, dayFirstLayouts...), monthFirstLayouts...)
	} else {
		layouts = append(append(layouts, monthFirstLayouts...), dayFirstLayouts...)
	}
	layouts = append(layouts, isoLayouts...)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrNotDate, s)
}
