package warehouse

import (
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/huandu/go-sqlbuilder"
)

// Dialect holds the SQL that differs between the supported stores.
type Dialect interface {
	Name() string
	Flavor() sqlbuilder.Flavor
	// ColumnType maps a frame column type to the store's column type.
	ColumnType(t frame.Type) string
	AlterColumnType(table, column, columnType string) string
	// DayDiff returns an expression for the calendar days between two timestamp expressions.
	DayDiff(later, earlier string) string
	CurrentSchema() string
	// TransactionalDDL reports whether schema changes can be rolled back.
	TransactionalDDL() bool
}

// Connector is implemented by the connection configs of every store.
type Connector interface {
	DriverName() string
	ToDBConnectionURI() string
}
