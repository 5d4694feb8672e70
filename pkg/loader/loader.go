// Package loader copies CSV exports into raw warehouse tables, one table per file.
package loader

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/logger"
	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/bruin-data/ecomstar/pkg/staging"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var ErrEmptyFile = errors.New("file has no header row")

type store interface {
	Dialect() warehouse.Dialect
	InTx(ctx context.Context, fn func(tx warehouse.Executor) error) error
}

type Loader struct {
	fs        afero.Fs
	store     store
	batchSize int
	logger    logger.Logger
}

func NewLoader(fs afero.Fs, s store, batchSize int, log logger.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = staging.DefaultBatchSize
	}

	return &Loader{fs: fs, store: s, batchSize: batchSize, logger: log}
}

type Result struct {
	File     string
	Table    string
	Columns  []frame.Column
	Rows     int
	Err      error
	Duration time.Duration
}

// LoadAll loads every file, a failing file does not stop the rest.
func (l *Loader) LoadAll(ctx context.Context, files []string) []*Result {
	results := make([]*Result, 0, len(files))
	for _, file := range files {
		res, err := l.Load(ctx, file)
		if err != nil {
			l.logger.Errorw("failed to load file", "file", file, "error", err)
		}
		results = append(results, res)
	}

	return results
}

func (l *Loader) Load(ctx context.Context, file string) (*Result, error) {
	start := time.Now()
	res := &Result{File: file, Table: TableName(file)}
	l.logger.Infow("processing file", "file", file, "table", res.Table)

	f, err := Read(l.fs, file)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res, err
	}
	res.Columns = f.Columns

	statements := Statements(l.store.Dialect(), res.Table, f, l.batchSize)
	err = l.store.InTx(ctx, func(tx warehouse.Executor) error {
		for _, q := range statements {
			if err := tx.RunQueryWithoutResult(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = errors.Wrapf(err, "failed to load '%s' into '%s'", file, res.Table)
		return res, res.Err
	}

	res.Rows = f.Len()
	l.logger.Infow("loaded file", "file", file, "table", res.Table, "rows", res.Rows, "duration", res.Duration)
	return res, nil
}

// TableName is the lower-cased file name without its extension.
func TableName(file string) string {
	base := filepath.Base(file)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Statements creates the table when it is missing and appends the rows in batches.
func Statements(d warehouse.Dialect, table string, f *frame.Frame, batchSize int) []*query.Query {
	ctb := d.Flavor().NewCreateTableBuilder()
	ctb.CreateTable(table).IfNotExists()
	for _, c := range f.Columns {
		ctb.Define(c.Name, d.ColumnType(c.Type))
	}

	statements := []*query.Query{{Query: ctb.String()}}
	return append(statements, staging.InsertBatches(d, table, f, batchSize)...)
}

// Read parses a CSV file with a header row into a typed frame. Column types are inferred from
// the non-empty cells and empty cells become NULL.
func Read(fs afero.Fs, file string) (*frame.Frame, error) {
	fh, err := fs.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open '%s'", file)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(ErrEmptyFile, "failed to read '%s'", file)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read the header of '%s'", file)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read '%s'", file)
	}

	columns := make([]frame.Column, len(header))
	for i, name := range header {
		cells := make([]string, len(records))
		for j, rec := range records {
			cells[j] = rec[i]
		}
		columns[i] = frame.Column{Name: strings.TrimSpace(name), Type: Infer(cells)}
	}

	f := frame.New(columns...)
	for j, rec := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i], err = convert(rec[i], c.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d, column '%s'", j+2, c.Name)
			}
		}
		f.Rows = append(f.Rows, row)
	}

	return f, nil
}

// Infer picks the narrowest type every non-empty cell fits: int, then float, then bool, text
// otherwise. A column without any value is a float column.
func Infer(cells []string) frame.Type {
	isInt, isFloat, isBool, seen := true, true, true, false
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		seen = true

		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			isBool = strings.EqualFold(cell, "true") || strings.EqualFold(cell, "false")
		}
	}

	switch {
	case !seen:
		return frame.TypeFloat
	case isInt:
		return frame.TypeInt
	case isFloat:
		return frame.TypeFloat
	case isBool:
		return frame.TypeBool
	default:
		return frame.TypeText
	}
}

func convert(cell string, t frame.Type) (any, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil, nil
	}

	switch t {
	case frame.TypeInt:
		return strconv.ParseInt(trimmed, 10, 64)
	case frame.TypeFloat:
		return strconv.ParseFloat(trimmed, 64)
	case frame.TypeBool:
		return strings.EqualFold(trimmed, "true"), nil
	default:
		return cell, nil
	}
}
