package report

import (
	"fmt"
	"io"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
)

func (r *Report) Render(w io.Writer) {
	t := newTable(w, "Headline")
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.AppendRows([]table.Row{
		{"Total orders", r.Headline.Orders},
		{"Total revenue", fmt.Sprintf("%.2f", r.Headline.Revenue)},
		{"Average installments", fmt.Sprintf("%.2f", r.Headline.AverageInstallments)},
		{"Delayed orders", r.Headline.DelayedOrders},
	})
	t.Render()

	RenderTables(w, r.Tables)
}

func RenderTables(w io.Writer, tables []*Table) {
	for _, tbl := range tables {
		_, _ = fmt.Fprintln(w)

		t := newTable(w, tbl.Title)
		t.AppendHeader(lo.Map(tbl.Columns, func(c string, _ int) any { return c }))
		for _, row := range tbl.Rows {
			t.AppendRow(lo.Map(row, func(v any, _ int) any { return cell(v) }))
		}
		if len(tbl.Rows) == 0 {
			t.AppendFooter(table.Row{"no rows"})
		}
		t.Render()
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func cell(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}

	s, ok := frame.Text(v)
	if !ok {
		return "NULL"
	}

	return s
}
