// Package staging persists transformed entity frames as transformed_<entity> tables.
package staging

import (
	"context"
	"time"

	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/bruin-data/ecomstar/pkg/transform"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/pkg/errors"
)

const DefaultBatchSize = 500

type store interface {
	Dialect() warehouse.Dialect
	RunQueryWithoutResult(ctx context.Context, query *query.Query) error
	InTx(ctx context.Context, fn func(tx warehouse.Executor) error) error
}

type Writer struct {
	store     store
	batchSize int
	logger    logger.Logger
}

func NewWriter(s store, batchSize int, log logger.Logger) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Writer{store: s, batchSize: batchSize, logger: log}
}

type TableResult struct {
	Entity entity.Name
	Table  string
	Rows   int
	// Dropped is set when the entity failed to transform and a stale table was removed instead.
	Dropped  bool
	Err      error
	Duration time.Duration
}

// WriteAll writes every successful transform result. Failed entities get their stale table dropped
// so dependent stages cannot read outdated rows. A failing table does not stop the others.
func (w *Writer) WriteAll(ctx context.Context, results transform.Results) []*TableResult {
	out := make([]*TableResult, 0, len(transform.Registry))
	for _, spec := range transform.Registry {
		table := spec.Entity.TransformedTable()
		start := time.Now()
		res := &TableResult{Entity: spec.Entity, Table: table}
		out = append(out, res)

		f := results.Frame(spec.Entity)
		if f == nil {
			res.Dropped = true
			res.Err = w.Drop(ctx, table)
			res.Duration = time.Since(start)
			if res.Err != nil {
				w.logger.Errorw("failed to drop stale transformed table", "table", table, "error", res.Err)
			} else {
				w.logger.Warnw("dropped transformed table of a failed entity", "table", table)
			}
			continue
		}

		res.Err = w.Write(ctx, table, f)
		res.Duration = time.Since(start)
		if res.Err != nil {
			w.logger.Errorw("failed to write transformed table", "table", table, "error", res.Err)
			continue
		}

		res.Rows = f.Len()
		w.logger.Infow("saved transformed table", "table", table, "rows", res.Rows, "duration", res.Duration)
	}

	return out
}

// Write replaces table with the frame contents inside one transaction.
func (w *Writer) Write(ctx context.Context, table string, f *frame.Frame) error {
	err := Replace(ctx, w.store, table, w.Statements(table, f), w.logger)
	if err != nil {
		return errors.Wrapf(err, "failed to write table '%s'", table)
	}

	return nil
}

// Replace runs the statements that rebuild table in one transaction. Stores that commit DDL
// implicitly cannot roll the table back, so on failure it is dropped instead of being left with
// part of its rows.
func Replace(ctx context.Context, s store, table string, statements []*query.Query, log logger.Logger) error {
	err := s.InTx(ctx, func(tx warehouse.Executor) error {
		for _, q := range statements {
			if err := tx.RunQueryWithoutResult(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil || s.Dialect().TransactionalDDL() {
		return err
	}

	if dropErr := s.RunQueryWithoutResult(ctx, DropTable(table)); dropErr != nil {
		log.Errorw("failed to drop partially built table", "table", table, "error", dropErr)
		return errors.Wrapf(err, "partially built table could not be dropped: %v", dropErr)
	}
	log.Warnw("dropped partially built table", "table", table)

	return err
}

func (w *Writer) Drop(ctx context.Context, table string) error {
	err := w.store.RunQueryWithoutResult(ctx, DropTable(table))
	if err != nil {
		return errors.Wrapf(err, "failed to drop table '%s'", table)
	}

	return nil
}

// Statements returns the drop, create and batched insert statements that replace table with f.
func (w *Writer) Statements(table string, f *frame.Frame) []*query.Query {
	d := w.store.Dialect()

	statements := []*query.Query{
		DropTable(table),
		CreateTable(d, table, f.Columns),
	}

	return append(statements, InsertBatches(d, table, f, w.batchSize)...)
}

func DropTable(table string) *query.Query {
	return &query.Query{Query: "DROP TABLE IF EXISTS " + table}
}

func CreateTable(d warehouse.Dialect, table string, columns []frame.Column) *query.Query {
	ctb := d.Flavor().NewCreateTableBuilder()
	ctb.CreateTable(table)
	for _, c := range columns {
		ctb.Define(c.Name, d.ColumnType(c.Type))
	}

	return &query.Query{Query: ctb.String()}
}

// InsertBatches splits the frame rows into multi-row INSERT statements of at most batchSize rows.
func InsertBatches(d warehouse.Dialect, table string, f *frame.Frame, batchSize int) []*query.Query {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	names := f.Names()
	batches := make([]*query.Query, 0, f.Len()/batchSize+1)
	for start := 0; start < f.Len(); start += batchSize {
		end := min(start+batchSize, f.Len())

		ib := d.Flavor().NewInsertBuilder()
		ib.InsertInto(table).Cols(names...)
		for _, row := range f.Rows[start:end] {
			ib.Values(row...)
		}

		q, args := ib.Build()
		batches = append(batches, &query.Query{Query: q, Args: args})
	}

	return batches
}
