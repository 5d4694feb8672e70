// Package dimension builds the star schema dimensions: one per dimensional entity plus the
// generated date and time calendars.
package dimension

import (
	"context"
	"fmt"
	"time"

	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/bruin-data/ecomstar/pkg/staging"
	"github.com/bruin-data/ecomstar/pkg/transform"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/pkg/errors"
)

const DefaultKeyWidth = 50

var ErrMissingSource = errors.New("transformed table does not exist")

type store interface {
	Dialect() warehouse.Dialect
	RunQueryWithoutResult(ctx context.Context, query *query.Query) error
	InTx(ctx context.Context, fn func(tx warehouse.Executor) error) error
	TableExists(ctx context.Context, table string) (bool, error)
}

// Spec describes an entity dimension: the projection copied out of the transformed table and the
// key that becomes its primary key.
type Spec struct {
	Entity  entity.Name
	Table   string
	Key     string
	Columns []string
}

var Entities = []Spec{
	{
		Entity:  entity.Users,
		Table:   "dim_users",
		Key:     "UserID",
		Columns: []string{"UserID", "UserZIPCode", "UserCity", "UserState"},
	},
	{
		Entity:  entity.Feedbacks,
		Table:   "dim_feedbacks",
		Key:     "FeedbackID",
		Columns: []string{"FeedbackID", "FeedbackScore", "FeedbackFormSentDate", "FeedbackAnswerDate"},
	},
	{
		Entity:  entity.Payments,
		Table:   "dim_payments",
		Key:     "PaymentID",
		Columns: []string{"PaymentID", "PaymentValue", "PaymentInstallments", "PaymentSequential", "PaymentType"},
	},
	{
		Entity: entity.Products,
		Table:  "dim_products",
		Key:    "ProductID",
		Columns: []string{
			"ProductID", "ProductCategory", "ProductNameLength", "ProductDescriptionLength", "ProductPhotosQuantity",
			"ProductWeightInGrams", "ProductLengthInCm", "ProductHeightInCm", "ProductWidthInCm",
		},
	},
	{
		Entity:  entity.Sellers,
		Table:   "dim_sellers",
		Key:     "SellerID",
		Columns: []string{"SellerID", "SellerCity", "SellerState", "SellerZIPCode"},
	},
}

func (s Spec) Source() string {
	return s.Entity.TransformedTable()
}

type Config struct {
	KeyWidth  int
	BatchSize int
	DateRange DateRange
}

type Builder struct {
	store  store
	config Config
	logger logger.Logger
}

func NewBuilder(s store, config Config, log logger.Logger) *Builder {
	if config.KeyWidth <= 0 {
		config.KeyWidth = DefaultKeyWidth
	}
	if config.BatchSize <= 0 {
		config.BatchSize = staging.DefaultBatchSize
	}
	if config.DateRange.Start.IsZero() && config.DateRange.End.IsZero() {
		config.DateRange = DefaultDateRange
	}

	return &Builder{store: s, config: config, logger: log}
}

type Result struct {
	Table string
	// Rows is -1 for dimensions copied inside the store, their size is not read back.
	Rows     int
	Err      error
	Duration time.Duration
}

// BuildAll rebuilds every entity dimension and then the calendars. It stops at the first failure
// since the fact table needs all of them.
func (b *Builder) BuildAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(Entities)+2)

	record := func(table string, rows int, start time.Time, err error) error {
		res := &Result{Table: table, Rows: rows, Err: err, Duration: time.Since(start)}
		results = append(results, res)
		if err != nil {
			b.logger.Errorw("failed to build dimension", "table", table, "error", err)
			return err
		}

		b.logger.Infow("built dimension", "table", table, "rows", rows, "duration", res.Duration)
		return nil
	}

	for _, spec := range Entities {
		start := time.Now()
		if err := record(spec.Table, -1, start, b.BuildEntity(ctx, spec)); err != nil {
			return results, err
		}
	}

	start := time.Now()
	rows, err := b.BuildDate(ctx)
	if err := record(DateTable, rows, start, err); err != nil {
		return results, err
	}

	start = time.Now()
	rows, err = b.BuildTime(ctx)
	if err := record(TimeTable, rows, start, err); err != nil {
		return results, err
	}

	return results, nil
}

// BuildEntity replaces an entity dimension. The fact table references every dimension so it is
// dropped first. The rebuild itself runs in one transaction. Stores that cannot roll back DDL get
// the half-built dimension dropped instead.
func (b *Builder) BuildEntity(ctx context.Context, spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	exists, err := b.store.TableExists(ctx, spec.Source())
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(ErrMissingSource, "'%s' is needed to build '%s'", spec.Source(), spec.Table)
	}

	if err := b.store.RunQueryWithoutResult(ctx, staging.DropTable(entity.FactOrderItems)); err != nil {
		return errors.Wrapf(err, "failed to drop '%s' before rebuilding '%s'", entity.FactOrderItems, spec.Table)
	}

	err = b.inTx(ctx, spec.Table, EntityStatements(b.store.Dialect(), spec, b.config.KeyWidth))
	if err != nil {
		return errors.Wrapf(err, "failed to build '%s'", spec.Table)
	}

	return nil
}

// EntityStatements returns the drop, projection, key coercion and primary key statements of a
// dimension.
func EntityStatements(d warehouse.Dialect, spec Spec, keyWidth int) []*query.Query {
	sb := d.Flavor().NewSelectBuilder()
	sb.Select(spec.Columns...).From(spec.Source())

	return []*query.Query{
		staging.DropTable(spec.Table),
		{Query: fmt.Sprintf("CREATE TABLE %s AS %s", spec.Table, sb.String())},
		{Query: d.AlterColumnType(spec.Table, spec.Key, fmt.Sprintf("VARCHAR(%d)", keyWidth))},
		{Query: fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", spec.Table, spec.Key)},
	}
}

func (b *Builder) BuildDate(ctx context.Context) (int, error) {
	f, err := DateFrame(b.config.DateRange)
	if err != nil {
		return 0, err
	}

	return f.Len(), b.buildCalendar(ctx, DateTable, dateColumns, f)
}

func (b *Builder) BuildTime(ctx context.Context) (int, error) {
	f := TimeFrame()
	return f.Len(), b.buildCalendar(ctx, TimeTable, timeColumns, f)
}

func (b *Builder) buildCalendar(ctx context.Context, table string, columns []calendarColumn, f *frame.Frame) error {
	if err := b.store.RunQueryWithoutResult(ctx, staging.DropTable(entity.FactOrderItems)); err != nil {
		return errors.Wrapf(err, "failed to drop '%s' before rebuilding '%s'", entity.FactOrderItems, table)
	}

	err := b.inTx(ctx, table, CalendarStatements(b.store.Dialect(), table, columns, f, b.config.BatchSize))
	if err != nil {
		return errors.Wrapf(err, "failed to build '%s'", table)
	}

	return nil
}

func CalendarStatements(d warehouse.Dialect, table string, columns []calendarColumn, f *frame.Frame, batchSize int) []*query.Query {
	ctb := d.Flavor().NewCreateTableBuilder()
	ctb.CreateTable(table)
	for _, c := range columns {
		ddl := c.ddl
		if ddl == "" {
			ddl = d.ColumnType(c.column.Type)
		}
		ctb.Define(c.column.Name, ddl)
	}

	statements := []*query.Query{
		staging.DropTable(table),
		{Query: ctb.String()},
	}

	return append(statements, staging.InsertBatches(d, table, f, batchSize)...)
}

func (b *Builder) inTx(ctx context.Context, table string, statements []*query.Query) error {
	return staging.Replace(ctx, b.store, table, statements, b.logger)
}

// validate checks that the key and the projection exist in the transformed schema.
func (s Spec) validate() error {
	tspec, err := transform.Lookup(s.Entity)
	if err != nil {
		return err
	}

	probe := frame.New(tspec.Columns...)
	for _, c := range append([]string{s.Key}, s.Columns...) {
		if !probe.Has(c) {
			return errors.Wrapf(frame.ErrMissingColumn, "'%s' is not a column of '%s'", c, s.Source())
		}
	}

	return nil
}
