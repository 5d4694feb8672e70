package mysql

import (
	"fmt"

	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/huandu/go-sqlbuilder"
)

// Dialect is the MySQL flavour of the warehouse SQL. MySQL commits implicitly around every DDL
// statement, so schema changes cannot be rolled back.
type Dialect struct{}

func (Dialect) Name() string {
	return "mysql"
}

func (Dialect) Flavor() sqlbuilder.Flavor {
	return sqlbuilder.MySQL
}

func (Dialect) ColumnType(t frame.Type) string {
	switch t {
	case frame.TypeInt:
		return "BIGINT"
	case frame.TypeFloat:
		return "DOUBLE"
	case frame.TypeDateTime:
		return "DATETIME"
	case frame.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (Dialect) AlterColumnType(table, column, columnType string) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", table, column, columnType)
}

func (Dialect) DayDiff(later, earlier string) string {
	return fmt.Sprintf("DATEDIFF(%s, %s)", later, earlier)
}

func (Dialect) CurrentSchema() string {
	return "DATABASE()"
}

func (Dialect) TransactionalDDL() bool {
	return false
}
