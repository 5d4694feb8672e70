package staging

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bruin-data/ecomstar/pkg/entity"
	"github.com/bruin-data/ecomstar/pkg/frame"
	"github.com/bruin-data/ecomstar/pkg/mysql"
	"github.com/bruin-data/ecomstar/pkg/postgres"
	"github.com/bruin-data/ecomstar/pkg/transform"
	"github.com/bruin-data/ecomstar/pkg/warehouse"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockWriter(t *testing.T, d warehouse.Dialect, batchSize int) (*Writer, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	client := warehouse.NewClientWithConnection(sqlx.NewDb(mockDB, "sqlmock"), d)
	return NewWriter(client, batchSize, zap.NewNop().Sugar()), mock
}

func sellersFrame(t *testing.T) *frame.Frame {
	t.Helper()

	f := frame.New(transform.SellerColumns...)
	require.NoError(t, f.Append("s1", "13023", "Campinas", "Sp"))
	require.NoError(t, f.Append("s2", "01310", "Sao Paulo", "Sp"))
	return f
}

func TestCreateTable(t *testing.T) {
	t.Parallel()

	q := CreateTable(mysql.Dialect{}, "transformed_feedbacks", transform.FeedbackColumns)
	assert.Equal(t,
		"CREATE TABLE transformed_feedbacks (FeedbackID TEXT, OrderID TEXT, FeedbackScore BIGINT, FeedbackFormSentDate DATETIME, FeedbackAnswerDate DATETIME)",
		q.String(),
	)

	q = CreateTable(postgres.Dialect{}, "transformed_orders", transform.OrderColumns)
	assert.Contains(t, q.String(), "OrderDate TIMESTAMP")
	assert.Contains(t, q.String(), "EstimatedDeliveryDate TIMESTAMP")
}

func TestInsertBatches(t *testing.T) {
	t.Parallel()

	f := frame.New(frame.Column{Name: "a", Type: frame.TypeText}, frame.Column{Name: "b", Type: frame.TypeInt})
	require.NoError(t, f.Append("x", int64(1)))
	require.NoError(t, f.Append("y", int64(2)))
	require.NoError(t, f.Append(nil, int64(3)))

	batches := InsertBatches(postgres.Dialect{}, "t", f, 2)
	require.Len(t, batches, 2)

	assert.Contains(t, batches[0].Query, "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4)")
	assert.Equal(t, []any{"x", int64(1), "y", int64(2)}, batches[0].Args)
	assert.Equal(t, []any{nil, int64(3)}, batches[1].Args)

	assert.Empty(t, InsertBatches(mysql.Dialect{}, "t", frame.New(f.Columns...), 2))
}

func TestWriter_WriteAll(t *testing.T) {
	t.Parallel()

	w, mock := newMockWriter(t, mysql.Dialect{}, 0)

	results := transform.Results{
		entity.Sellers: &transform.Result{Entity: entity.Sellers, Frame: sellersFrame(t)},
		entity.Users:   &transform.Result{Entity: entity.Users, Err: errors.New("missing column")},
	}

	drop := func(table string) {
		mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS " + table)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	drop("transformed_payments")
	drop("transformed_feedbacks")
	drop("transformed_products")

	mock.ExpectBegin()
	drop("transformed_sellers")
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE transformed_sellers (SellerID TEXT, SellerZIPCode TEXT, SellerCity TEXT, SellerState TEXT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transformed_sellers (SellerID, SellerZIPCode, SellerCity, SellerState) VALUES (?, ?, ?, ?), (?, ?, ?, ?)")).
		WithArgs("s1", "13023", "Campinas", "Sp", "s2", "01310", "Sao Paulo", "Sp").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	drop("transformed_order_items")
	drop("transformed_users")
	drop("transformed_orders")

	got := w.WriteAll(context.Background(), results)
	require.Len(t, got, len(transform.Registry))
	require.NoError(t, mock.ExpectationsWereMet())

	for _, res := range got {
		require.NoError(t, res.Err, res.Table)
		if res.Entity == entity.Sellers {
			assert.False(t, res.Dropped)
			assert.Equal(t, 2, res.Rows)
			continue
		}
		assert.True(t, res.Dropped, res.Table)
	}
}

func TestWriter_WriteRollsBackAndContinues(t *testing.T) {
	t.Parallel()

	w, mock := newMockWriter(t, postgres.Dialect{}, 10)

	results := transform.Results{}
	for _, spec := range transform.Registry {
		results[spec.Entity] = &transform.Result{Entity: spec.Entity, Frame: frame.New(spec.Columns...)}
	}
	results[entity.Sellers].Frame = sellersFrame(t)

	for _, spec := range transform.Registry {
		table := spec.Entity.TransformedTable()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS " + table)).WillReturnResult(sqlmock.NewResult(0, 0))
		if spec.Entity == entity.Sellers {
			mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE " + table)).WillReturnError(errors.New("permission denied"))
			mock.ExpectRollback()
			continue
		}
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE " + table)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
	}

	got := w.WriteAll(context.Background(), results)
	require.NoError(t, mock.ExpectationsWereMet())

	for _, res := range got {
		if res.Entity == entity.Sellers {
			require.EqualError(t, res.Err, "failed to write table 'transformed_sellers': failed to execute query: permission denied")
			continue
		}
		require.NoError(t, res.Err)
		assert.Zero(t, res.Rows)
	}
}

func TestWriter_WriteDropsPartialTableWithoutTransactionalDDL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cleanupErr  error
		wantMessage string
	}{
		{
			name:        "partial table is dropped",
			wantMessage: "failed to write table 'transformed_sellers': failed to execute query: data too long",
		},
		{
			name:        "cleanup failure is reported",
			cleanupErr:  errors.New("lock wait timeout"),
			wantMessage: "failed to write table 'transformed_sellers': partially built table could not be dropped: failed to execute query: lock wait timeout: failed to execute query: data too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, mock := newMockWriter(t, mysql.Dialect{}, 1)
			insert := regexp.QuoteMeta("INSERT INTO transformed_sellers (SellerID, SellerZIPCode, SellerCity, SellerState) VALUES (?, ?, ?, ?)")

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS transformed_sellers")).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE transformed_sellers")).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(insert).WithArgs("s1", "13023", "Campinas", "Sp").WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(insert).WithArgs("s2", "01310", "Sao Paulo", "Sp").WillReturnError(errors.New("data too long"))
			mock.ExpectRollback()

			cleanup := mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS transformed_sellers"))
			if tt.cleanupErr != nil {
				cleanup.WillReturnError(tt.cleanupErr)
			} else {
				cleanup.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			err := w.Write(context.Background(), "transformed_sellers", sellersFrame(t))
			require.EqualError(t, err, tt.wantMessage)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWriter_WriteRollsBackWithTransactionalDDL(t *testing.T) {
	t.Parallel()

	w, mock := newMockWriter(t, postgres.Dialect{}, 1)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS transformed_sellers")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE transformed_sellers")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transformed_sellers")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transformed_sellers")).WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	err := w.Write(context.Background(), "transformed_sellers", sellersFrame(t))
	require.ErrorContains(t, err, "value too long")
	require.NoError(t, mock.ExpectationsWereMet())
}
