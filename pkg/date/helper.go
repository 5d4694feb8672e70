package date

import (
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the single textual layout every normalized timestamp is written in.
const TimestampLayout = "2006-01-02 15:04:05"

var ErrInvalidFormat = errors.New("invalid datetime format")

var allowedFormats = []string{
	"2006-01-02 15:04:05.000000Z07:00",
	"2006-01-02T15:04:05.000000Z07:00",
	"2006-01-02 15:04:05.000000",
	"2006-01-02T15:04:05.000000",
	"2006-01-02 15:04:05.000Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"02 Jan 2006 15:04:05.000Z07:00",
	"02 Jan 2006 15:04:05Z07:00",
	"02 Jan 2006 15:04Z07:00",
	"02 Jan 2006",
}

func ParseTime(input string) (time.Time, error) {
	t, _, err := ParseTimeWithFormat(input)
	return t, err
}

func ParseTimeWithFormat(input string) (time.Time, string, error) {
	input = strings.TrimSpace(input)
	for _, format := range allowedFormats {
		t, err := time.Parse(format, input)
		if err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", ErrInvalidFormat
}

// Normalize converts a raw timestamp cell into TimestampLayout. Values that cannot be read as a
// timestamp yield ok=false so callers can store NULL, the same way an unparseable date is coerced.
func Normalize(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(TimestampLayout), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return Normalize(*v)
	case []byte:
		return Normalize(string(v))
	case string:
		if v == "" {
			return "", false
		}
		t, err := ParseTime(v)
		if err != nil {
			return "", false
		}
		return t.Format(TimestampLayout), true
	default:
		return "", false
	}
}
