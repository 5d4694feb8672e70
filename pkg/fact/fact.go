// Package fact creates and populates fact_order_items from the transformed orders, their items and
// every dimension.
package fact

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/bruin-data/ecomstar/pkg/dimension"
	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/jinja"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/bruin-data/ecomstar/pkg/staging"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/pkg/errors"
)

//go:embed insert.sql
var insertTemplate string

var ErrMissingTable = errors.New("required table does not exist")

type FailureMode string

const (
	FailFast   FailureMode = "fail-fast"
	BestEffort FailureMode = "best-effort"
)

func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(strings.ToLower(strings.TrimSpace(s))) {
	case FailFast:
		return FailFast, nil
	case BestEffort, "":
		return BestEffort, nil
	default:
		return "", errors.Errorf("unknown fact failure mode '%s', expected '%s' or '%s'", s, FailFast, BestEffort)
	}
}

type column struct {
	name string
	ddl  string
}

// event is one of the order lifecycle timestamps resolved against dim_date and dim_time.
type event struct {
	alias  string
	column string
	prefix string
}

var events = []event{
	{alias: "order", column: "OrderDate", prefix: "Order"},
	{alias: "delivered", column: "DeliveredDate", prefix: "Delivered"},
	{alias: "estimated", column: "EstimatedDeliveryDate", prefix: "EstimatedDelivery"},
	{alias: "approved", column: "OrderApprovedDate", prefix: "OrderApproved"},
	{alias: "pickup", column: "PickupDate", prefix: "Pickup"},
}

func columns(keyWidth int) []column {
	key := fmt.Sprintf("VARCHAR(%d)", keyWidth)
	return []column{
		{name: "OrderID", ddl: key},
		{name: "UserID", ddl: key},
		{name: "ProductID", ddl: key},
		{name: "SellerID", ddl: key},
		{name: "PaymentID", ddl: key},
		{name: "FeedbackID", ddl: key},
		{name: "OrderDateKey", ddl: "INT"},
		{name: "OrderTimeKey", ddl: "INT"},
		{name: "PaymentValue", ddl: "DOUBLE PRECISION"},
		{name: "UserState", ddl: "VARCHAR(70)"},
		{name: "DeliveredDateKey", ddl: "INT"},
		{name: "DeliveredTimeKey", ddl: "INT"},
		{name: "DeliveryDelayCheck", ddl: "VARCHAR(6)"},
		{name: "DeliveryDelayDays", ddl: "INT"},
		{name: "EstimatedDeliveryDateKey", ddl: "INT"},
		{name: "EstimatedDeliveryTimeKey", ddl: "INT"},
		{name: "OrderApprovedDateKey", ddl: "INT"},
		{name: "OrderApprovedTimeKey", ddl: "INT"},
		{name: "OrderStatus", ddl: "VARCHAR(20)"},
		{name: "PickupDateKey", ddl: "INT"},
		{name: "PickupTimeKey", ddl: "INT"},
		{name: "Quantity", ddl: "INT"},
		{name: "ShippingDays", ddl: "INT"},
	}
}

// Columns lists the fact columns in table order.
func Columns() []string {
	cols := columns(dimension.DefaultKeyWidth)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	return names
}

// RequiredTables are read by the population query.
func RequiredTables() []string {
	tables := []string{entity.Orders.TransformedTable(), entity.OrderItems.TransformedTable()}
	for _, spec := range dimension.Entities {
		tables = append(tables, spec.Table)
	}

	return append(tables, dimension.DateTable, dimension.TimeTable)
}

func CreateStatement(d warehouse.Dialect, keyWidth int) *query.Query {
	ctb := d.Flavor().NewCreateTableBuilder()
	ctb.CreateTable(entity.FactOrderItems)
	for _, c := range columns(keyWidth) {
		ctb.Define(c.name, c.ddl)
	}

	for _, spec := range dimension.Entities {
		ctb.Define(fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)", spec.Key, spec.Table, spec.Key))
	}
	for _, e := range events {
		ctb.Define(fmt.Sprintf("FOREIGN KEY (%sDateKey) REFERENCES %s(DateKey)", e.prefix, dimension.DateTable))
		ctb.Define(fmt.Sprintf("FOREIGN KEY (%sTimeKey) REFERENCES %s(TimeKey)", e.prefix, dimension.TimeTable))
	}

	return &query.Query{Query: ctb.String()}
}

// InsertStatement renders the population query for the dialect. Every join is a LEFT JOIN so an
// order whose timestamps fall outside the calendar keeps its row with NULL keys.
func InsertStatement(d warehouse.Dialect) (*query.Query, error) {
	eventContext := make([]map[string]string, len(events))
	for i, e := range events {
		eventContext[i] = map[string]string{"alias": e.alias, "column": e.column}
	}

	renderer := jinja.NewRenderer(jinja.Context{
		"fact":        entity.FactOrderItems,
		"columns":     Columns(),
		"orders":      entity.Orders.TransformedTable(),
		"order_items": entity.OrderItems.TransformedTable(),
		"date_table":  dimension.DateTable,
		"time_table":  dimension.TimeTable,
		"events":      eventContext,
		"day_diff":    d.DayDiff,
	})

	rendered, err := renderer.Render(insertTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render the fact population query")
	}

	return &query.Query{Query: strings.TrimSpace(rendered)}, nil
}

type store interface {
	Dialect() warehouse.Dialect
	RunQueryWithoutResult(ctx context.Context, query *query.Query) error
	Select(ctx context.Context, query *query.Query) ([][]any, error)
	InTx(ctx context.Context, fn func(tx warehouse.Executor) error) error
	TableExists(ctx context.Context, table string) (bool, error)
}

type Assembler struct {
	store    store
	keyWidth int
	mode     FailureMode
	logger   logger.Logger
}

func NewAssembler(s store, keyWidth int, mode FailureMode, log logger.Logger) *Assembler {
	if keyWidth <= 0 {
		keyWidth = dimension.DefaultKeyWidth
	}
	if mode == "" {
		mode = BestEffort
	}

	return &Assembler{store: s, keyWidth: keyWidth, mode: mode, logger: log}
}

type Result struct {
	Table string
	Rows  int
	// Err holds a population failure tolerated in best-effort mode.
	Err      error
	Duration time.Duration
}

// Build recreates the fact table and populates it. Schema errors are always returned. Population
// errors are returned in fail-fast mode and only recorded on the result in best-effort mode.
func (a *Assembler) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{Table: entity.FactOrderItems}

	for _, table := range RequiredTables() {
		exists, err := a.store.TableExists(ctx, table)
		if err != nil {
			return res, err
		}
		if !exists {
			return res, errors.Wrapf(ErrMissingTable, "'%s' is needed to build '%s'", table, entity.FactOrderItems)
		}
	}

	err := a.store.InTx(ctx, func(tx warehouse.Executor) error {
		if err := tx.RunQueryWithoutResult(ctx, staging.DropTable(entity.FactOrderItems)); err != nil {
			return err
		}
		return tx.RunQueryWithoutResult(ctx, CreateStatement(a.store.Dialect(), a.keyWidth))
	})
	if err != nil {
		return res, errors.Wrapf(err, "failed to create '%s'", entity.FactOrderItems)
	}

	err = a.populate(ctx)
	res.Duration = time.Since(start)
	if err != nil {
		if a.mode == FailFast {
			return res, err
		}

		res.Err = err
		a.logger.Errorw("failed to populate the fact table, continuing", "table", entity.FactOrderItems, "error", err)
		return res, nil
	}

	res.Rows, err = a.count(ctx)
	if err != nil {
		return res, err
	}

	a.logger.Infow("populated fact table", "table", entity.FactOrderItems, "rows", res.Rows, "duration", res.Duration)
	return res, nil
}

func (a *Assembler) populate(ctx context.Context) error {
	insert, err := InsertStatement(a.store.Dialect())
	if err != nil {
		return err
	}

	err = a.store.InTx(ctx, func(tx warehouse.Executor) error {
		return tx.RunQueryWithoutResult(ctx, insert)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to populate '%s'", entity.FactOrderItems)
	}

	return nil
}

func (a *Assembler) count(ctx context.Context) (int, error) {
	rows, err := a.store.Select(ctx, &query.Query{Query: "SELECT COUNT(*) FROM " + entity.FactOrderItems})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count '%s'", entity.FactOrderItems)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}

	n, err := frame.Int(rows[0][0])
	if err != nil {
		return 0, errors.Wrap(err, "unexpected row count")
	}

	return int(n), nil
}
