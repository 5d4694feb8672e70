// Package frame holds small in-memory tables read from, and written back to, the warehouse.
package frame

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrMissingColumn = errors.New("missing column")

type Type int

const (
	// TypeRaw marks columns read straight from the store, their values are whatever the driver returned.
	TypeRaw Type = iota
	TypeText
	TypeInt
	TypeFloat
	TypeDateTime
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDateTime:
		return "datetime"
	case TypeBool:
		return "bool"
	default:
		return "raw"
	}
}

type Column struct {
	Name string
	Type Type
}

type Frame struct {
	Columns []Column
	Rows    [][]any
}

func New(columns ...Column) *Frame {
	return &Frame{
		Columns: columns,
		Rows:    make([][]any, 0),
	}
}

// FromNames builds an empty frame of raw columns.
func FromNames(names ...string) *Frame {
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Type: TypeRaw}
	}

	return New(columns...)
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}

	return len(f.Rows)
}

func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}

	return names
}

// Index resolves a column position. Names are matched case-insensitively since some stores fold
// unquoted identifiers to lower case.
func (f *Frame) Index(name string) (int, error) {
	for i, c := range f.Columns {
		if strings.EqualFold(c.Name, name) {
			return i, nil
		}
	}

	return -1, errors.Wrapf(ErrMissingColumn, "column '%s' does not exist", name)
}

func (f *Frame) Has(name string) bool {
	_, err := f.Index(name)
	return err == nil
}

// Indexes resolves several columns at once, failing on the first missing one.
func (f *Frame) Indexes(names ...string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	for _, name := range names {
		idx, err := f.Index(name)
		if err != nil {
			return nil, err
		}
		out[name] = idx
	}

	return out, nil
}

func (f *Frame) Append(values ...any) error {
	if len(values) != len(f.Columns) {
		return errors.Errorf("row has %d values but the frame has %d columns", len(values), len(f.Columns))
	}

	f.Rows = append(f.Rows, values)
	return nil
}

// Column returns every value of the named column in row order.
func (f *Frame) Column(name string) ([]any, error) {
	idx, err := f.Index(name)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}

	return values, nil
}
