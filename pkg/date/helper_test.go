package date

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			input:    "2023-03-16 10:30:00",
			expected: time.Date(2023, 0o3, 16, 10, 30, 0, 0, time.UTC),
		},
		{
			input:    "2023-03-16",
			expected: time.Date(2023, 0o3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			input:    "2017-10-02T10:56:33",
			expected: time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC),
		},
		{
			input:    "2023/03/16",
			expected: time.Time{},
			wantErr:  true,
		},
		{
			input:    "2023-03-16 10:30:00 PM",
			expected: time.Time{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			actual, err := ParseTime(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		want   string
		wantOk bool
	}{
		{
			name:   "nil is not a timestamp",
			input:  nil,
			wantOk: false,
		},
		{
			name:   "driver bytes are parsed",
			input:  []byte("2018-01-05 09:15:01"),
			want:   "2018-01-05 09:15:01",
			wantOk: true,
		},
		{
			name:   "date only gets a midnight time",
			input:  "2018-01-05",
			want:   "2018-01-05 00:00:00",
			wantOk: true,
		},
		{
			name:   "fractional seconds are dropped",
			input:  "2018-01-05T09:15:01.123",
			want:   "2018-01-05 09:15:01",
			wantOk: true,
		},
		{
			name:   "time values are formatted directly",
			input:  time.Date(2017, 3, 4, 23, 1, 2, 0, time.UTC),
			want:   "2017-03-04 23:01:02",
			wantOk: true,
		},
		{
			name:   "garbage is coerced away",
			input:  "not a date",
			wantOk: false,
		},
		{
			name:   "empty string is coerced away",
			input:  "",
			wantOk: false,
		},
		{
			name:   "numbers are not timestamps",
			input:  int64(20180105),
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
