package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgxmockExpectationsNotMetMsg = "pgxmock expectations were not met"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupStore(t *testing.T) (context.Context, *TableStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	t.Cleanup(mockPool.Close)
	return context.Background(), NewTableStore(mockPool, logger), mockPool
}

func expectColumns(mockPool pgxmock.PgxPoolIface, table string, columns ...string) {
	rows := pgxmock.NewRows([]string{"column_name"})
	for _, c := range columns {
		rows.AddRow(c)
	}
	mockPool.ExpectQuery(regexp.QuoteMeta(columnsSQL)).WithArgs(table).WillReturnRows(rows)
}

func TestParseKeyKind(t *testing.T) {
	tests := []struct {
		input   string
		kind    KeyKind
		sqlType string
	}{
		{"b_int", KeyBigInt, "BIGINT"},
		{"int", KeyInt, "INTEGER"},
		{"s_int", KeySmallInt, "SMALLINT"},
		{"float", KeyFloat, "DOUBLE PRECISION"},
		{"str", KeyString, "VARCHAR(255)"},
		{"txt", KeyText, "TEXT"},
		{"bool", KeyBool, "BOOLEAN"},
		{"date", KeyDate, "DATE"},
		{"datetime", KeyDateTime, "TIMESTAMP"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseKeyKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.sqlType, kind.SQLType())
			assert.Equal(t, tt.input, kind.String())
		})
	}

	_, err := ParseKeyKind("uuid")
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)
}

func TestTableStore_CreateTable(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "customers" ("customer_id" VARCHAR(255) PRIMARY KEY)`)).
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mockPool.ExpectCommit()

		err := store.CreateTable(ctx, "customers", "customer_id", KeyString)

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Rolls back on failure", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("CREATE TABLE").WillReturnError(errors.New("disk full"))
		mockPool.ExpectRollback()

		err := store.CreateTable(ctx, "loans", "loan_id", KeyString)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Empty name", func(t *testing.T) {
		ctx, store, _ := setupStore(t)
		err := store.CreateTable(ctx, "", "id", KeyInt)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})

	t.Run("Error - Begin fails", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin().WillReturnError(errors.New("no connection"))

		err := store.CreateTable(ctx, "loans", "loan_id", KeyString)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})
}

func TestTableStore_DropTable(t *testing.T) {
	ctx, store, mockPool := setupStore(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "loans"`)).WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mockPool.ExpectCommit()

	assert.NoError(t, store.DropTable(ctx, "loans"))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestTableStore_InsertRow(t *testing.T) {
	row := map[string]any{"customer_id": "1423", "annual_income": 34513.0}

	t.Run("Success - Adds missing column", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		expectColumns(mockPool, "customers", "customer_id")
		mockPool.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "customers" ADD COLUMN "annual_income" DOUBLE PRECISION`)).
			WillReturnResult(pgxmock.NewResult("ALTER TABLE", 0))
		mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO "customers" ("annual_income", "customer_id") VALUES ($1, $2)`)).
			WithArgs(34513.0, "1423").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		err := store.InsertRow(ctx, "customers", row)

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Duplicate key rolls back", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		expectColumns(mockPool, "customers", "customer_id", "annual_income")
		mockPool.ExpectExec("INSERT INTO").
			WithArgs(34513.0, "1423").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customers_pkey"})
		mockPool.ExpectRollback()

		err := store.InsertRow(ctx, "customers", row)

		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Missing table asks for a reset", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		expectColumns(mockPool, "customers")
		mockPool.ExpectRollback()

		err := store.InsertRow(ctx, "customers", row)

		assert.ErrorIs(t, err, ErrTableMissing)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
		assert.Contains(t, err.Error(), "reset the database first")
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Empty row", func(t *testing.T) {
		ctx, store, _ := setupStore(t)
		assert.ErrorIs(t, store.InsertRow(ctx, "customers", nil), apperrors.ErrInvalidArgument)
	})
}

func TestTableStore_InsertMany(t *testing.T) {
	t.Run("Success - Empty frame is a no-op", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		assert.NoError(t, store.InsertMany(ctx, "loans", frame.New()))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Column creation fails", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		f := frame.New()
		require.NoError(t, f.Set(frame.NewColumn("loan_id", frame.String, []any{"1"})))
		require.NoError(t, f.Set(frame.NewColumn("amount", frame.Float, []any{2426.0})))

		mockPool.ExpectBegin()
		expectColumns(mockPool, "loans", "loan_id")
		mockPool.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "loans" ADD COLUMN "amount" DOUBLE PRECISION`)).
			WillReturnError(errors.New("permission denied"))
		mockPool.ExpectRollback()

		err := store.InsertMany(ctx, "loans", f)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}

func TestTableStore_Update(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE "customers" SET "annual_income" = $1 WHERE "customer_id" = $2`)).
			WithArgs(50000.0, "1090").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()

		n, err := store.Update(ctx, "customers", map[string]any{"customer_id": "1090", "annual_income": 50000.0}, []string{"customer_id"})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Key without value", func(t *testing.T) {
		ctx, store, _ := setupStore(t)
		_, err := store.Update(ctx, "customers", map[string]any{"annual_income": 1.0}, []string{"customer_id"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestTableStore_Distinct_UnknownColumn(t *testing.T) {
	ctx, store, mockPool := setupStore(t)
	mockPool.ExpectQuery("SELECT DISTINCT").
		WillReturnError(&pgconn.PgError{Code: "42703", Message: `column "nope" does not exist`})

	_, err := store.Distinct(ctx, "loans", "nope")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTableStore_Upsert(t *testing.T) {
	ctx, store, mockPool := setupStore(t)
	mockPool.ExpectBegin()
	expectColumns(mockPool, "customers", "customer_id", "annual_income")
	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO "customers" ("annual_income", "customer_id") VALUES ($1, $2) ON CONFLICT ("customer_id") DO UPDATE SET "annual_income" = EXCLUDED."annual_income"`)).
		WithArgs(1.0, "1090").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	err := store.Upsert(ctx, "customers", map[string]any{"customer_id": "1090", "annual_income": 1.0}, []string{"customer_id"})

	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestTableStore_Delete(t *testing.T) {
	query := regexp.QuoteMeta(`DELETE FROM "customers" WHERE "customer_id" = $1`)

	t.Run("Success", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(query).WithArgs("1090").WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectCommit()

		n, err := store.Delete(ctx, "customers", map[string]any{"customer_id": "1090"})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec(query).WithArgs("42").WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectRollback()

		_, err := store.Delete(ctx, "customers", map[string]any{"customer_id": "42"})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Error - Missing filter", func(t *testing.T) {
		ctx, store, _ := setupStore(t)
		_, err := store.Delete(ctx, "customers", nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestTableStore_Clear(t *testing.T) {
	ctx, store, mockPool := setupStore(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM "loans"`)).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mockPool.ExpectCommit()

	n, err := store.Clear(ctx, "loans")

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTableStore_Find(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "loans" WHERE "loan_id" = $1`)).
			WithArgs("1").
			WillReturnRows(pgxmock.NewRows([]string{"loan_id", "loan_date", "amount", "customer_id"}).
				AddRow("1", "11/15/2021", 2426.0, "1090"))

		f, err := store.Find(ctx, "loans", map[string]any{"loan_id": "1"})

		require.NoError(t, err)
		assert.Equal(t, 1, f.Len())
		assert.Equal(t, []string{"loan_id", "loan_date", "amount", "customer_id"}, f.Names())
		amount, err := f.Column("amount")
		require.NoError(t, err)
		assert.Equal(t, frame.Float, amount.Kind)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("Success - Empty result keeps columns", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers"`)).
			WillReturnRows(pgxmock.NewRows([]string{"customer_id", "annual_income"}))

		f, err := store.Find(ctx, "customers", nil)

		require.NoError(t, err)
		assert.Equal(t, 0, f.Len())
		assert.True(t, f.Has("annual_income"))
	})

	t.Run("Error - Missing table", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery("SELECT").WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "loans" does not exist`})

		_, err := store.Find(ctx, "loans", nil)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestTableStore_Metadata(t *testing.T) {
	t.Run("Tables", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(tablesSQL)).
			WillReturnRows(pgxmock.NewRows([]string{"table_name"}).AddRow("customers").AddRow("loans"))

		tables, err := store.Tables(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"customers", "loans"}, tables)
	})

	t.Run("Columns", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		expectColumns(mockPool, "customers", "customer_id", "annual_income")

		cols, err := store.Columns(ctx, "customers")

		require.NoError(t, err)
		assert.Equal(t, []string{"customer_id", "annual_income"}, cols)
	})

	t.Run("Count", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "loans"`)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

		n, err := store.Count(ctx, "loans")

		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("Distinct", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "term" FROM "loans" ORDER BY 1`)).
			WillReturnRows(pgxmock.NewRows([]string{"term"}).AddRow("long").AddRow("short"))

		values, err := store.Distinct(ctx, "loans", "term")

		require.NoError(t, err)
		assert.Equal(t, []any{"long", "short"}, values)
	})
}

func TestTableStore_IsEmpty(t *testing.T) {
	t.Run("Missing table", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(tableExistsSQL)).WithArgs("customers").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		empty, err := store.IsEmpty(ctx, "customers")

		require.NoError(t, err)
		assert.True(t, empty)
	})

	t.Run("Populated table", func(t *testing.T) {
		ctx, store, mockPool := setupStore(t)
		mockPool.ExpectQuery(regexp.QuoteMeta(tableExistsSQL)).WithArgs("customers").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "customers"`)).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

		empty, err := store.IsEmpty(ctx, "customers")

		require.NoError(t, err)
		assert.False(t, empty)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}
