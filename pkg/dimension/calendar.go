package dimension

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bruin-data/ecomstar/pkg/date"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/pkg/errors"
)

const (
	DateTable = "dim_date"
	TimeTable = "dim_time"
)

type DateRange struct {
	Start time.Time
	End   time.Time
}

// DefaultDateRange covers every order timestamp of the source dataset.
var DefaultDateRange = DateRange{
	Start: time.Date(2016, time.April, 9, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2018, time.October, 17, 0, 0, 0, 0, time.UTC),
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("date range needs both a start and an end")
	}
	if r.End.Before(r.Start) {
		return errors.Errorf("date range ends (%s) before it starts (%s)", r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}

	return nil
}

// calendarColumn pairs a generated column with the DDL type it is declared with. An empty ddl means
// the dialect type of the frame column is used.
type calendarColumn struct {
	column frame.Column
	ddl    string
}

var dateColumns = []calendarColumn{
	{column: frame.Column{Name: "DateKey", Type: frame.TypeInt}, ddl: "INT PRIMARY KEY"},
	{column: frame.Column{Name: "Date", Type: frame.TypeDateTime}},
	{column: frame.Column{Name: "Day", Type: frame.TypeText}, ddl: "VARCHAR(2)"},
	{column: frame.Column{Name: "DayName", Type: frame.TypeText}, ddl: "VARCHAR(9)"},
	{column: frame.Column{Name: "Month", Type: frame.TypeText}, ddl: "VARCHAR(2)"},
	{column: frame.Column{Name: "MonthName", Type: frame.TypeText}, ddl: "VARCHAR(9)"},
	{column: frame.Column{Name: "Quarter", Type: frame.TypeText}, ddl: "CHAR(1)"},
	{column: frame.Column{Name: "Season", Type: frame.TypeText}, ddl: "VARCHAR(6)"},
	{column: frame.Column{Name: "Year", Type: frame.TypeText}, ddl: "CHAR(4)"},
}

var timeColumns = []calendarColumn{
	{column: frame.Column{Name: "TimeKey", Type: frame.TypeInt}, ddl: "INT PRIMARY KEY"},
	{column: frame.Column{Name: "AM_PM", Type: frame.TypeText}, ddl: "VARCHAR(2)"},
	{column: frame.Column{Name: "Hour", Type: frame.TypeInt}, ddl: "INT"},
	{column: frame.Column{Name: "Minute", Type: frame.TypeInt}, ddl: "INT"},
	{column: frame.Column{Name: "Second", Type: frame.TypeInt}, ddl: "INT"},
	{column: frame.Column{Name: "Time", Type: frame.TypeText}, ddl: "TIME"},
	{column: frame.Column{Name: "TimeOfDay", Type: frame.TypeText}, ddl: "VARCHAR(10)"},
}

func frameColumns(columns []calendarColumn) []frame.Column {
	out := make([]frame.Column, len(columns))
	for i, c := range columns {
		out[i] = c.column
	}

	return out
}

// Season maps a month to its season: Dec-Feb Winter, Mar-May Spring, Jun-Aug Summer, Sep-Nov Fall.
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

func Quarter(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// DateKey encodes a day as YYYYMMDD.
func DateKey(t time.Time) int64 {
	return int64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// DateFrame generates one dim_date row per day of the range, both ends included. Day and Month
// are not zero padded.
func DateFrame(r DateRange) (*frame.Frame, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)

	f := frame.New(frameColumns(dateColumns)...)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		err := f.Append(
			DateKey(day),
			day.Format(date.TimestampLayout),
			strconv.Itoa(day.Day()),
			day.Weekday().String(),
			strconv.Itoa(int(day.Month())),
			day.Month().String(),
			strconv.Itoa(Quarter(day.Month())),
			Season(day.Month()),
			strconv.Itoa(day.Year()),
		)
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

// TimeOfDay buckets an hour: before 12 Morning, 12-17 Afternoon, 18-20 Evening, otherwise Night.
func TimeOfDay(hour int) string {
	switch {
	case hour < 12:
		return "Morning"
	case hour < 18:
		return "Afternoon"
	case hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

// TimeKey encodes a minute of the day as HHMMSS with the seconds always zero.
func TimeKey(hour, minute int) int64 {
	return int64(hour*10000 + minute*100)
}

// TimeFrame generates the 1440 dim_time rows, one per minute of the day.
func TimeFrame() *frame.Frame {
	f := frame.New(frameColumns(timeColumns)...)
	for hour := range 24 {
		amPM := "AM"
		if hour >= 12 {
			amPM = "PM"
		}

		for minute := range 60 {
			f.Rows = append(f.Rows, []any{
				TimeKey(hour, minute),
				amPM,
				int64(hour),
				int64(minute),
				int64(0),
				fmt.Sprintf("%02d:%02d:00", hour, minute),
				TimeOfDay(hour),
			})
		}
	}

	return f
}
