package warehouse

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Executor runs statements, either directly on the client or inside a transaction.
type Executor interface {
	RunQueryWithoutResult(ctx context.Context, query *query.Query) error
}

type connection interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
}

type Client struct {
	conn    connection
	dialect Dialect
}

func NewClient(ctx context.Context, c Connector, d Dialect) (*Client, error) {
	conn, err := sqlx.ConnectContext(ctx, c.DriverName(), c.ToDBConnectionURI())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", d.Name())
	}

	return &Client{conn: conn, dialect: d}, nil
}

// NewClientWithConnection wraps an already opened database handle.
func NewClientWithConnection(db *sqlx.DB, d Dialect) *Client {
	return &Client{conn: db, dialect: d}
}

func (c *Client) Dialect() Dialect {
	return c.dialect
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) RunQueryWithoutResult(ctx context.Context, query *query.Query) error {
	_, err := c.conn.ExecContext(ctx, query.String(), query.Args...)
	if err != nil {
		return errors.Wrap(err, "failed to execute query")
	}

	return nil
}

// Select runs a query and returns the results.
func (c *Client) Select(ctx context.Context, query *query.Query) ([][]any, error) {
	result, err := c.SelectWithSchema(ctx, query)
	if err != nil {
		return nil, err
	}

	return result.Rows, nil
}

func (c *Client) SelectWithSchema(ctx context.Context, queryObj *query.Query) (*query.QueryResult, error) {
	rows, err := c.conn.QueryxContext(ctx, queryObj.String(), queryObj.Args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read column names")
	}

	collectedRows := make([][]any, 0)
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Wrap(err, "failed to collect row values")
		}

		for i, v := range row {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}
		collectedRows = append(collectedRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to collect row values")
	}

	return &query.QueryResult{
		Columns: columns,
		Rows:    collectedRows,
	}, nil
}

// SelectFrame runs a query and returns its result as a frame of raw columns.
func (c *Client) SelectFrame(ctx context.Context, q *query.Query) (*frame.Frame, error) {
	result, err := c.SelectWithSchema(ctx, q)
	if err != nil {
		return nil, err
	}

	f := frame.FromNames(result.Columns...)
	f.Rows = result.Rows
	return f, nil
}

func (c *Client) ReadTable(ctx context.Context, table string) (*frame.Frame, error) {
	sb := c.dialect.Flavor().NewSelectBuilder()
	sb.Select("*").From(table)

	f, err := c.SelectFrame(ctx, &query.Query{Query: sb.String()})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read table '%s'", table)
	}

	return f, nil
}

// Ping runs a simple query to validate the connection.
func (c *Client) Ping(ctx context.Context) error {
	err := c.RunQueryWithoutResult(ctx, &query.Query{Query: "SELECT 1"})
	if err != nil {
		return errors.Wrapf(err, "failed to run test query on %s connection", c.dialect.Name())
	}

	return nil
}

// TableExists looks the table up in the current schema. Names are compared case-insensitively.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	sb := c.dialect.Flavor().NewSelectBuilder()
	sb.Select("COUNT(*)").
		From("information_schema.tables").
		Where(
			sb.Equal("table_schema", sqlbuilder.Raw(c.dialect.CurrentSchema())),
			sb.Equal("LOWER(table_name)", strings.ToLower(table)),
		)

	q, args := sb.Build()
	rows, err := c.Select(ctx, &query.Query{Query: q, Args: args})
	if err != nil {
		return false, errors.Wrapf(err, "failed to check whether table '%s' exists", table)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false, nil
	}

	count, err := frame.Int(rows[0][0])
	if err != nil {
		return false, errors.Wrap(err, "unexpected table count")
	}

	return count > 0, nil
}

// InTx runs fn inside a transaction that is committed when fn succeeds and rolled back otherwise.
func (c *Client) InTx(ctx context.Context, fn func(tx Executor) error) error {
	sqlTx, err := c.conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "error while beginning transaction")
	}

	tx := &Tx{tx: sqlTx}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback also failed: %v", rbErr)
		}
		return err
	}

	return tx.Commit()
}
