package postgres

import (
	"fmt"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/huandu/go-sqlbuilder"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect is the PostgreSQL flavour of the warehouse SQL. Unquoted identifiers are folded to
// lower case by the server, so column names come back lower-cased.
type Dialect struct{}

func (Dialect) Name() string {
	return "postgres"
}

func (Dialect) Flavor() sqlbuilder.Flavor {
	return sqlbuilder.PostgreSQL
}

func (Dialect) ColumnType(t frame.Type) string {
	switch t {
	case frame.TypeInt:
		return "BIGINT"
	case frame.TypeFloat:
		return "DOUBLE PRECISION"
	case frame.TypeDateTime:
		return "TIMESTAMP"
	case frame.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (Dialect) AlterColumnType(table, column, columnType string) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, column, columnType)
}

func (Dialect) DayDiff(later, earlier string) string {
	return fmt.Sprintf("(CAST(%s AS DATE) - CAST(%s AS DATE))", later, earlier)
}

func (Dialect) CurrentSchema() string {
	return "current_schema()"
}

func (Dialect) TransactionalDDL() bool {
	return true
}
