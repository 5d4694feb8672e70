package frame

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrNullValue = errors.New("null value")

// Text renders a cell the way a string cast would. ok is false for NULL cells.
func Text(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.Format("2006-01-02 15:04:05"), true
	default:
		return "", false
	}
}

func formatFloat(v float64) (string, bool) {
	if math.IsNaN(v) {
		return "", false
	}

	return strconv.FormatFloat(v, 'f', -1, 64), true
}

// Int coerces a cell to an integer, truncating fractional numbers. NULL and non-numeric text are errors.
func Int(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, ErrNullValue
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil //nolint:gosec
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	default:
		return 0, errors.Errorf("cannot convert %T to an integer", value)
	}
}

func floatToInt(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("cannot convert %v to an integer", v)
	}

	return int64(v), nil
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNullValue
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}

	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, errors.Wrapf(err, "invalid integer '%s'", s)
	}

	return floatToInt(f)
}

// Float coerces a cell to a float. NULL cells give ok=false without an error.
func Float(value any) (float64, bool, error) {
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case int:
		return float64(v), true, nil
	case int32:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case float32:
		return float64(v), true, nil
	case float64:
		if math.IsNaN(v) {
			return 0, false, nil
		}
		return v, true, nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	default:
		return 0, false, errors.Errorf("cannot convert %T to a number", value)
	}
}

func parseFloat(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "invalid number '%s'", s)
	}

	return f, true, nil
}

// NullableFloat is Float for cells that are stored as-is, NULL stays nil.
func NullableFloat(value any) (any, error) {
	f, ok, err := Float(value)
	if err != nil || !ok {
		return nil, err
	}

	return f, nil
}
