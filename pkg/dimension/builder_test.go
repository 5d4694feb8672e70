package dimension

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bruin-data/ecomstar/pkg/mysql"
	"github.com/bruin-data/ecomstar/pkg/postgres"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockBuilder(t *testing.T, d warehouse.Dialect, config Config) (*Builder, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	client := warehouse.NewClientWithConnection(sqlx.NewDb(mockDB, "sqlmock"), d)
	return NewBuilder(client, config, zap.NewNop().Sugar()), mock
}

func expectExec(mock sqlmock.Sqlmock, q string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(regexp.QuoteMeta(q))
}

func expectSourceExists(mock sqlmock.Sqlmock, table string, count int) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs(table).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func TestEntities_MatchTransformedSchemas(t *testing.T) {
	t.Parallel()

	for _, spec := range Entities {
		require.NoError(t, spec.validate(), spec.Table)
		assert.Equal(t, spec.Key, spec.Columns[0])

		table, ok := spec.Entity.DimensionTable()
		require.True(t, ok)
		assert.Equal(t, table, spec.Table)
	}
}

func TestEntityStatements(t *testing.T) {
	t.Parallel()

	spec := Entities[0]

	tests := []struct {
		name    string
		dialect warehouse.Dialect
		want    []string
	}{
		{
			name:    "mysql",
			dialect: mysql.Dialect{},
			want: []string{
				"DROP TABLE IF EXISTS dim_users",
				"CREATE TABLE dim_users AS SELECT UserID, UserZIPCode, UserCity, UserState FROM transformed_users",
				"ALTER TABLE dim_users MODIFY COLUMN UserID VARCHAR(64)",
				"ALTER TABLE dim_users ADD PRIMARY KEY (UserID)",
			},
		},
		{
			name:    "postgres",
			dialect: postgres.Dialect{},
			want: []string{
				"DROP TABLE IF EXISTS dim_users",
				"CREATE TABLE dim_users AS SELECT UserID, UserZIPCode, UserCity, UserState FROM transformed_users",
				"ALTER TABLE dim_users ALTER COLUMN UserID TYPE VARCHAR(64)",
				"ALTER TABLE dim_users ADD PRIMARY KEY (UserID)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			statements := EntityStatements(tt.dialect, spec, 64)
			got := make([]string, len(statements))
			for i, q := range statements {
				got[i] = q.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuilder_BuildEntity(t *testing.T) {
	t.Parallel()

	t.Run("rebuilds the dimension after dropping the fact table", func(t *testing.T) {
		t.Parallel()

		b, mock := newMockBuilder(t, postgres.Dialect{}, Config{})
		expectSourceExists(mock, "transformed_sellers", 1)
		expectExec(mock, "DROP TABLE IF EXISTS fact_order_items").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectBegin()
		expectExec(mock, "DROP TABLE IF EXISTS dim_sellers").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "CREATE TABLE dim_sellers AS SELECT SellerID, SellerCity, SellerState, SellerZIPCode FROM transformed_sellers").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "ALTER TABLE dim_sellers ALTER COLUMN SellerID TYPE VARCHAR(50)").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "ALTER TABLE dim_sellers ADD PRIMARY KEY (SellerID)").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, b.BuildEntity(context.Background(), Entities[4]))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing transformed table fails before touching the store", func(t *testing.T) {
		t.Parallel()

		b, mock := newMockBuilder(t, mysql.Dialect{}, Config{})
		expectSourceExists(mock, "transformed_users", 0)

		err := b.BuildEntity(context.Background(), Entities[0])
		require.ErrorIs(t, err, ErrMissingSource)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("transactional stores only roll back", func(t *testing.T) {
		t.Parallel()

		b, mock := newMockBuilder(t, postgres.Dialect{}, Config{})
		expectSourceExists(mock, "transformed_payments", 1)
		expectExec(mock, "DROP TABLE IF EXISTS fact_order_items").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectBegin()
		expectExec(mock, "DROP TABLE IF EXISTS dim_payments").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "CREATE TABLE dim_payments AS SELECT").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "ALTER TABLE dim_payments ALTER COLUMN PaymentID").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "ALTER TABLE dim_payments ADD PRIMARY KEY (PaymentID)").WillReturnError(errors.New("could not create unique index"))
		mock.ExpectRollback()

		err := b.BuildEntity(context.Background(), Entities[2])
		require.EqualError(t, err, "failed to build 'dim_payments': failed to execute query: could not create unique index")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non transactional stores drop the half built dimension", func(t *testing.T) {
		t.Parallel()

		b, mock := newMockBuilder(t, mysql.Dialect{}, Config{})
		expectSourceExists(mock, "transformed_products", 1)
		expectExec(mock, "DROP TABLE IF EXISTS fact_order_items").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectBegin()
		expectExec(mock, "DROP TABLE IF EXISTS dim_products").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "CREATE TABLE dim_products AS SELECT").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "ALTER TABLE dim_products MODIFY COLUMN ProductID VARCHAR(50)").WillReturnResult(sqlmock.NewResult(0, 0))
		expectExec(mock, "ALTER TABLE dim_products ADD PRIMARY KEY (ProductID)").WillReturnError(errors.New("Duplicate entry"))
		mock.ExpectRollback()
		expectExec(mock, "DROP TABLE IF EXISTS dim_products").WillReturnResult(sqlmock.NewResult(0, 0))

		err := b.BuildEntity(context.Background(), Entities[3])
		require.EqualError(t, err, "failed to build 'dim_products': failed to execute query: Duplicate entry")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCalendarStatements(t *testing.T) {
	t.Parallel()

	statements := CalendarStatements(mysql.Dialect{}, TimeTable, timeColumns, TimeFrame(), 500)
	require.Len(t, statements, 2+3)
	assert.Equal(t, "DROP TABLE IF EXISTS dim_time", statements[0].String())
	assert.Equal(t,
		"CREATE TABLE dim_time (TimeKey INT PRIMARY KEY, AM_PM VARCHAR(2), Hour INT, Minute INT, Second INT, Time TIME, TimeOfDay VARCHAR(10))",
		statements[1].String(),
	)
	assert.Len(t, statements[2].Args, 500*len(timeColumns))
	assert.Len(t, statements[4].Args, 440*len(timeColumns))

	f, err := DateFrame(DefaultDateRange)
	require.NoError(t, err)
	statements = CalendarStatements(postgres.Dialect{}, DateTable, dateColumns, f, 1000)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[1].String(), "DateKey INT PRIMARY KEY, Date TIMESTAMP, Day VARCHAR(2)")
	assert.Contains(t, statements[2].String(), "INSERT INTO dim_date (DateKey, Date, Day, DayName, Month, MonthName, Quarter, Season, Year) VALUES ($1, $2")
}

func TestBuilder_BuildDate(t *testing.T) {
	t.Parallel()

	b, mock := newMockBuilder(t, postgres.Dialect{}, Config{
		DateRange: DateRange{
			Start: time.Date(2017, 11, 30, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2017, 12, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	expectExec(mock, "DROP TABLE IF EXISTS fact_order_items").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	expectExec(mock, "DROP TABLE IF EXISTS dim_date").WillReturnResult(sqlmock.NewResult(0, 0))
	expectExec(mock, "CREATE TABLE dim_date").WillReturnResult(sqlmock.NewResult(0, 0))
	expectExec(mock, "INSERT INTO dim_date").
		WithArgs(
			int64(20171130), "2017-11-30 00:00:00", "30", "Thursday", "11", "November", "4", "Fall", "2017",
			int64(20171201), "2017-12-01 00:00:00", "1", "Friday", "12", "December", "4", "Winter", "2017",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	rows, err := b.BuildDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_BuildAllStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	b, mock := newMockBuilder(t, mysql.Dialect{}, Config{})
	expectSourceExists(mock, "transformed_users", 0)

	results, err := b.BuildAll(context.Background())
	require.ErrorIs(t, err, ErrMissingSource)
	require.Len(t, results, 1)
	assert.Equal(t, "dim_users", results[0].Table)
	require.Error(t, results[0].Err)
	require.NoError(t, mock.ExpectationsWereMet())
}
