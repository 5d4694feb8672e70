// Package report runs read-only analytics over the star schema.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bruin-data/ecomstar/pkg/dimension"
	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/jinja"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

const DefaultLimit = 10

type store interface {
	SelectWithSchema(ctx context.Context, q *query.Query) (*query.QueryResult, error)
}

type Headline struct {
	Orders              int64
	Revenue             float64
	AverageInstallments float64
	DelayedOrders       int64
}

type Table struct {
	Title   string
	Columns []string
	Rows    [][]any
}

type Report struct {
	Headline Headline
	Tables   []*Table
}

type Reporter struct {
	store    store
	fs       afero.Fs
	renderer *jinja.Renderer
	logger   logger.Logger
}

func NewReporter(s store, fs afero.Fs, limit int, log logger.Logger) *Reporter {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Reporter{
		store:    s,
		fs:       fs,
		renderer: jinja.NewRenderer(Context(limit)),
		logger:   log,
	}
}

// Context holds the variables available to report queries, custom query files included.
func Context(limit int) jinja.Context {
	ctx := jinja.Context{
		"fact_table": entity.FactOrderItems,
		"dim_date":   dimension.DateTable,
		"dim_time":   dimension.TimeTable,
		"limit":      limit,
	}
	for _, spec := range dimension.Entities {
		ctx[spec.Table] = spec.Table
	}

	return ctx
}

func (r *Reporter) Build(ctx context.Context) (*Report, error) {
	headline, err := r.headline(ctx)
	if err != nil {
		return nil, err
	}

	rep := &Report{Headline: *headline}

	payments, err := r.selectTemplate(ctx, "Payments", paymentsQuery)
	if err != nil {
		return nil, err
	}
	rep.Headline.AverageInstallments, err = AverageInstallments(payments.Rows)
	if err != nil {
		return nil, err
	}

	for _, s := range sections {
		t, err := r.selectTemplate(ctx, s.title, s.template)
		if err != nil {
			return nil, err
		}
		rep.Tables = append(rep.Tables, t)
	}

	types, err := PaymentTypes(payments.Rows)
	if err != nil {
		return nil, err
	}
	rep.Tables = append(rep.Tables, types)

	return rep, nil
}

// RunFile runs every statement of a SQL file, rendered with the report variables.
func (r *Reporter) RunFile(ctx context.Context, file string) ([]*Table, error) {
	extractor := query.FileQuerySplitterExtractor{Fs: r.fs, Renderer: r.renderer}
	queries, err := extractor.ExtractQueriesFromFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to extract queries from '%s'", file)
	}

	tables := make([]*Table, 0, len(queries))
	for i, q := range queries {
		title := fmt.Sprintf("%s #%d", file, i+1)
		r.logger.Debugw("running report query", "title", title, "query", q.Query)

		res, err := r.store.SelectWithSchema(ctx, q)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to run query %d of '%s'", i+1, file)
		}
		tables = append(tables, &Table{Title: title, Columns: res.Columns, Rows: res.Rows})
	}

	return tables, nil
}

func (r *Reporter) headline(ctx context.Context) (*Headline, error) {
	orders, err := r.selectTemplate(ctx, "Orders", ordersQuery)
	if err != nil {
		return nil, err
	}
	revenue, err := r.selectTemplate(ctx, "Revenue", revenueQuery)
	if err != nil {
		return nil, err
	}
	if len(orders.Rows) != 1 || len(revenue.Rows) != 1 {
		return nil, errors.New("headline queries must return exactly one row")
	}

	h := &Headline{}
	if h.Orders, err = frame.Int(orders.Rows[0][0]); err != nil {
		return nil, errors.Wrap(err, "invalid order count")
	}
	if h.DelayedOrders, err = frame.Int(orders.Rows[0][1]); err != nil {
		return nil, errors.Wrap(err, "invalid delayed order count")
	}
	if h.Revenue, _, err = frame.Float(revenue.Rows[0][0]); err != nil {
		return nil, errors.Wrap(err, "invalid revenue")
	}

	return h, nil
}

func (r *Reporter) selectTemplate(ctx context.Context, title, template string) (*Table, error) {
	rendered, err := r.renderer.Render(template)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render the '%s' query", title)
	}

	q := &query.Query{Query: strings.TrimSpace(rendered)}
	r.logger.Debugw("running report query", "title", title, "query", q.Query)

	res, err := r.store.SelectWithSchema(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to run the '%s' query", title)
	}

	return &Table{Title: title, Columns: res.Columns, Rows: res.Rows}, nil
}

// splitList splits a comma-joined payment cell such as "Credit Card, Boleto".
func splitList(value any) []string {
	s, ok := frame.Text(value)
	if !ok {
		return nil
	}

	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Compact(parts)
}

// AverageInstallments averages the installment counts of all payments. Every element of a joined
// list counts once.
func AverageInstallments(rows [][]any) (float64, error) {
	total, count := 0.0, 0
	for _, row := range rows {
		for _, part := range splitList(row[0]) {
			n, _, err := frame.Float(part)
			if err != nil {
				return 0, errors.Wrap(err, "invalid installment count")
			}
			total += n
			count++
		}
	}

	if count == 0 {
		return 0, nil
	}

	return total / float64(count), nil
}

// PaymentTypes counts how often each payment type was used, most used first.
func PaymentTypes(rows [][]any) (*Table, error) {
	types := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, errors.New("payment rows must carry the installments and the type")
		}
		types = append(types, splitList(row[1])...)
	}

	counts := lo.Entries(lo.CountValues(types))
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Value != counts[j].Value {
			return counts[i].Value > counts[j].Value
		}
		return counts[i].Key < counts[j].Key
	})

	return &Table{
		Title:   "Payment types",
		Columns: []string{"PaymentType", "Payments"},
		Rows: lo.Map(counts, func(e lo.Entry[string, int], _ int) []any {
			return []any{e.Key, e.Value}
		}),
	}, nil
}
