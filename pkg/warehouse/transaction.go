package warehouse

import (
	"context"

	"github.com/bruin-data/ecomstar/pkg/query"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Tx wraps a sqlx transaction and remembers whether it was already closed.
type Tx struct {
	tx       *sqlx.Tx
	isClosed bool
}

func (t *Tx) RunQueryWithoutResult(ctx context.Context, query *query.Query) error {
	if t.isClosed {
		return errors.New("transaction is already closed")
	}

	_, err := t.tx.ExecContext(ctx, query.String(), query.Args...)
	if err != nil {
		return errors.Wrap(err, "failed to execute query")
	}

	return nil
}

func (t *Tx) Commit() error {
	if t.isClosed {
		return nil
	}

	if err := t.tx.Commit(); err != nil {
		return errors.Wrap(err, "error while committing transaction")
	}

	t.isClosed = true
	return nil
}

func (t *Tx) Rollback() error {
	if t.isClosed {
		return nil
	}

	if err := t.tx.Rollback(); err != nil {
		return errors.Wrap(err, "error while rolling back transaction")
	}

	t.isClosed = true
	return nil
}
