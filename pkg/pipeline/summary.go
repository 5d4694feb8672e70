package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusTolerated marks a failure reported in the summary that does not fail the run.
	StatusTolerated Status = "tolerated"
)

type Row struct {
	Stage  Stage
	Table  string
	Status Status
	// Rows is negative when the stage does not know how many rows it wrote.
	Rows     int
	Duration time.Duration
	Err      error
}

type Summary struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Rows     []Row
}

func (s *Summary) add(r Row) {
	s.Rows = append(s.Rows, r)
}

// Failures counts the rows that fail the run.
func (s *Summary) Failures() int {
	return s.count(StatusFailed)
}

func (s *Summary) Tolerated() int {
	return s.count(StatusTolerated)
}

func (s *Summary) count(status Status) int {
	n := 0
	for _, r := range s.Rows {
		if r.Status == status {
			n++
		}
	}

	return n
}

// Render writes the summary as a table, failed rows painted red and tolerated ones yellow.
func (s *Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Run %s", s.RunID)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.SetRowPainter(func(row table.Row) text.Colors {
		if len(row) < 3 {
			return text.Colors{}
		}
		switch row[2] {
		case StatusFailed:
			return text.Colors{text.FgRed}
		case StatusTolerated:
			return text.Colors{text.FgYellow}
		default:
			return text.Colors{}
		}
	})

	t.AppendHeader(table.Row{"Stage", "Table", "Status", "Rows", "Duration", "Error"})
	for _, r := range s.Rows {
		rows := "-"
		if r.Rows >= 0 && r.Err == nil {
			rows = fmt.Sprintf("%d", r.Rows)
		}

		errMessage := ""
		if r.Err != nil {
			errMessage = r.Err.Error()
		}

		t.AppendRow(table.Row{r.Stage, r.Table, r.Status, rows, r.Duration.Truncate(time.Millisecond), errMessage})
	}
	status := fmt.Sprintf("%d failed", s.Failures())
	if tolerated := s.Tolerated(); tolerated > 0 {
		status += fmt.Sprintf(", %d tolerated", tolerated)
	}
	t.AppendFooter(table.Row{"", "", status, "", s.Duration.Truncate(time.Millisecond), ""})

	t.Render()
}
