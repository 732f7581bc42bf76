package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/infrastructure/monitoring"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

// ErrTableMissing is returned when rows are written to a table that has not been created.
var ErrTableMissing = fmt.Errorf("%w: table does not exist, reset the database first", apperrors.ErrInvalidArgument)

const (
	columnsSQL = `SELECT column_name FROM information_schema.columns
        WHERE table_schema = current_schema() AND table_name = $1
        ORDER BY ordinal_position`

	tablesSQL = `SELECT table_name FROM information_schema.tables
        WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
        ORDER BY table_name`

	tableExistsSQL = `SELECT EXISTS (SELECT 1 FROM information_schema.tables
        WHERE table_schema = current_schema() AND table_name = $1)`
)

// TableStore is a schema-flexible row store over Postgres. Every mutating call runs
// in its own transaction: it commits on success, rolls back on failure and returns
// the error to the caller.
type TableStore struct {
	db     DBPool
	logger *slog.Logger
}

func NewTableStore(db DBPool, logger *slog.Logger) *TableStore {
	if db == nil {
		panic("DBPool cannot be nil for TableStore")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewTableStore, using default stderr handler")
	}
	return &TableStore{db: db, logger: logger.With("component", "TableStore")}
}

func (s *TableStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (s *TableStore) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (s *TableStore) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to rollback transaction: %w", apperrors.ErrDatabase, err)
	}
	s.logger.WarnContext(ctx, "Transaction rolled back")
	return nil
}

func (s *TableStore) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		monitoring.RecordDBQuery(op, monitoring.StatusLabel(err), time.Since(start))
	}()

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		_ = s.RollbackTx(ctx, tx)
		return err
	}
	return s.CommitTx(ctx, tx)
}

func (s *TableStore) CreateTable(ctx context.Context, table, pkName string, kind KeyKind) error {
	if err := requireNames(table, pkName); err != nil {
		return err
	}
	logger := s.logger.With(slog.String("table", table), slog.String("primary_key", pkName))
	logger.InfoContext(ctx, "Attempting to create table", slog.String("key_type", kind.String()))

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s %s PRIMARY KEY)", ident(table), ident(pkName), kind.SQLType())
	err := s.withTx(ctx, "CreateTable", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query)
		return translateDBError(err, logger)
	})
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Successfully created table")
	return nil
}

func (s *TableStore) DropTable(ctx context.Context, table string) error {
	if err := requireNames(table); err != nil {
		return err
	}
	logger := s.logger.With(slog.String("table", table))
	err := s.withTx(ctx, "DropTable", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident(table))
		return translateDBError(err, logger)
	})
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Successfully dropped table")
	return nil
}

// InsertRow inserts one row, adding any column the table does not have yet.
func (s *TableStore) InsertRow(ctx context.Context, table string, row map[string]any) error {
	if err := requireNames(table); err != nil {
		return err
	}
	if len(row) == 0 {
		return fmt.Errorf("%w: row for %q is empty", apperrors.ErrInvalidArgument, table)
	}
	logger := s.logger.With(slog.String("table", table))
	names := sortedKeys(row)

	return s.withTx(ctx, "InsertRow", func(tx pgx.Tx) error {
		kinds := make(map[string]string, len(names))
		for _, n := range names {
			kinds[n] = sqlTypeOf(row[n])
		}
		if err := s.ensureColumns(ctx, tx, table, names, kinds); err != nil {
			return err
		}
		args := make([]any, len(names))
		for i, n := range names {
			args[i] = row[n]
		}
		_, err := tx.Exec(ctx, insertSQL(table, names), args...)
		return translateDBError(err, logger)
	})
}

// InsertMany inserts every row of f in a single transaction using a pgx batch.
func (s *TableStore) InsertMany(ctx context.Context, table string, f *frame.Frame) error {
	if err := requireNames(table); err != nil {
		return err
	}
	if f == nil || f.Len() == 0 {
		return nil
	}
	logger := s.logger.With(slog.String("table", table), slog.Int("rows", f.Len()))
	names := f.Names()

	err := s.withTx(ctx, "InsertMany", func(tx pgx.Tx) error {
		kinds := make(map[string]string, len(names))
		for _, c := range f.Columns() {
			kinds[c.Name] = sqlTypeOfKind(c.Kind)
		}
		if err := s.ensureColumns(ctx, tx, table, names, kinds); err != nil {
			return err
		}

		query := insertSQL(table, names)
		batch := &pgx.Batch{}
		for i := 0; i < f.Len(); i++ {
			args := make([]any, len(names))
			for j, n := range names {
				args[j] = f.Value(i, n)
			}
			batch.Queue(query, args...)
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < f.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				logger.ErrorContext(ctx, "Failed executing batch insert", slog.Any("error", err), slog.Int("row", i))
				return fmt.Errorf("%w: failed inserting row %d into %q: %w", apperrors.ErrDatabase, i, table, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Successfully inserted rows")
	return nil
}

// Update sets the non-key fields of values on every row whose key columns match.
func (s *TableStore) Update(ctx context.Context, table string, values map[string]any, keys []string) (int64, error) {
	setCols, where, args, err := splitKeys(values, keys)
	if err != nil {
		return 0, err
	}
	if len(setCols) == 0 {
		return 0, fmt.Errorf("%w: nothing to update in %q", apperrors.ErrInvalidArgument, table)
	}
	sets := make([]string, len(setCols))
	setArgs := make([]any, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), i+1)
		setArgs[i] = values[c]
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", ident(table), strings.Join(sets, ", "), whereClause(where, len(setCols)))
	args = append(setArgs, args...)

	var affected int64
	logger := s.logger.With(slog.String("table", table))
	err = s.withTx(ctx, "Update", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return translateDBError(err, logger)
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// Upsert inserts values or, on a key conflict, overwrites the non-key fields.
func (s *TableStore) Upsert(ctx context.Context, table string, values map[string]any, keys []string) error {
	setCols, _, _, err := splitKeys(values, keys)
	if err != nil {
		return err
	}
	names := sortedKeys(values)
	logger := s.logger.With(slog.String("table", table))

	conflict := make([]string, len(keys))
	for i, k := range keys {
		conflict[i] = ident(k)
	}
	query := insertSQL(table, names) + " ON CONFLICT (" + strings.Join(conflict, ", ") + ")"
	if len(setCols) == 0 {
		query += " DO NOTHING"
	} else {
		sets := make([]string, len(setCols))
		for i, c := range setCols {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c))
		}
		query += " DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return s.withTx(ctx, "Upsert", func(tx pgx.Tx) error {
		kinds := make(map[string]string, len(names))
		for _, n := range names {
			kinds[n] = sqlTypeOf(values[n])
		}
		if err := s.ensureColumns(ctx, tx, table, names, kinds); err != nil {
			return err
		}
		args := make([]any, len(names))
		for i, n := range names {
			args[i] = values[n]
		}
		_, err := tx.Exec(ctx, query, args...)
		return translateDBError(err, logger)
	})
}

// Delete removes the rows matching filters and reports apperrors.ErrNotFound when none matched.
func (s *TableStore) Delete(ctx context.Context, table string, filters map[string]any) (int64, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: delete on %q requires a filter", apperrors.ErrInvalidArgument, table)
	}
	names := sortedKeys(filters)
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = filters[n]
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", ident(table), whereClause(names, 0))

	var affected int64
	logger := s.logger.With(slog.String("table", table))
	err := s.withTx(ctx, "Delete", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return translateDBError(err, logger)
		}
		affected = tag.RowsAffected()
		if affected == 0 {
			return fmt.Errorf("%w: no rows in %q match %v", apperrors.ErrNotFound, table, filters)
		}
		return nil
	})
	return affected, err
}

// Clear deletes every row of the table.
func (s *TableStore) Clear(ctx context.Context, table string) (int64, error) {
	var affected int64
	logger := s.logger.With(slog.String("table", table))
	err := s.withTx(ctx, "Clear", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM "+ident(table))
		if err != nil {
			return translateDBError(err, logger)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err == nil {
		logger.InfoContext(ctx, "Cleared table", slog.Int64("rows", affected))
	}
	return affected, err
}

// Query runs a select statement and returns the result as a frame.
func (s *TableStore) Query(ctx context.Context, query string, args ...any) (f *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		monitoring.RecordDBQuery("Query", monitoring.StatusLabel(err), time.Since(start))
	}()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to run query", slog.Any("error", err))
		return nil, translateDBError(err, s.logger)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([][]any, len(fields))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: failed scanning row: %w", apperrors.ErrDatabase, err)
		}
		for i := range fields {
			columns[i] = append(columns[i], fromDB(values[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError(err, s.logger)
	}

	f = frame.New()
	for i, fd := range fields {
		values := columns[i]
		if values == nil {
			values = []any{}
		}
		kind := frame.InferKind(values)
		if kind == frame.Float {
			for j, v := range values {
				if n, ok := v.(int64); ok {
					values[j] = float64(n)
				}
			}
		}
		if err := f.Set(frame.NewColumn(fd.Name, kind, values)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Find selects every row of table matching the equality filters.
func (s *TableStore) Find(ctx context.Context, table string, filters map[string]any) (*frame.Frame, error) {
	query := "SELECT * FROM " + ident(table)
	names := sortedKeys(filters)
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = filters[n]
	}
	if len(names) > 0 {
		query += " WHERE " + whereClause(names, 0)
	}
	return s.Query(ctx, query, args...)
}

func (s *TableStore) Tables(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, tablesSQL)
}

func (s *TableStore) Columns(ctx context.Context, table string) ([]string, error) {
	return s.queryStrings(ctx, columnsSQL, table)
}

func (s *TableStore) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+ident(table)).Scan(&n); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count rows", slog.String("table", table), slog.Any("error", err))
		return 0, translateDBError(err, s.logger)
	}
	return n, nil
}

func (s *TableStore) Distinct(ctx context.Context, table, column string) ([]any, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY 1", ident(column), ident(table))
	f, err := s.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	col, err := f.Column(column)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return col.Values, nil
}

// IsEmpty is true when the table is missing or has no rows.
func (s *TableStore) IsEmpty(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, tableExistsSQL, table).Scan(&exists); err != nil {
		return false, translateDBError(err, s.logger)
	}
	if !exists {
		return true, nil
	}
	n, err := s.Count(ctx, table)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *TableStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: failed scanning row: %w", apperrors.ErrDatabase, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *TableStore) ensureColumns(ctx context.Context, tx pgx.Tx, table string, names []string, kinds map[string]string) error {
	rows, err := tx.Query(ctx, columnsSQL, table)
	if err != nil {
		return fmt.Errorf("%w: listing columns of %q: %w", apperrors.ErrDatabase, table, err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("%w: scanning column name: %w", apperrors.ErrDatabase, err)
		}
		existing[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if len(existing) == 0 {
		return fmt.Errorf("%w: %q", ErrTableMissing, table)
	}

	for _, n := range names {
		if existing[n] {
			continue
		}
		s.logger.InfoContext(ctx, "Adding column", slog.String("table", table), slog.String("column", n), slog.String("type", kinds[n]))
		if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ident(table), ident(n), kinds[n])); err != nil {
			return translateDBError(err, s.logger)
		}
	}
	return nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		case "42P01", "42703":
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, pgErr.Message)
		case "23503", "42804":
			contextLogger.Warn("Row conflicts with table definition", "code", pgErr.Code, "message", pgErr.Message)
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.Message)
		}
		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s: %s", apperrors.ErrDatabase, pgErr.Code, pgErr.Message)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func requireNames(names ...string) error {
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: table and column names must not be empty", apperrors.ErrInvalidArgument)
		}
	}
	return nil
}

func insertSQL(table string, names []string) string {
	cols := make([]string, len(names))
	params := make([]string, len(names))
	for i, n := range names {
		cols[i] = ident(n)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

func whereClause(names []string, offset int) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s = $%d", ident(n), offset+i+1)
	}
	return strings.Join(parts, " AND ")
}

func splitKeys(values map[string]any, keys []string) (setCols, keyCols []string, keyArgs []any, err error) {
	if len(keys) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: at least one key column is required", apperrors.ErrInvalidArgument)
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: key column %q has no value", apperrors.ErrInvalidArgument, k)
		}
		isKey[k] = true
		keyCols = append(keyCols, k)
		keyArgs = append(keyArgs, v)
	}
	for _, n := range sortedKeys(values) {
		if !isKey[n] {
			setCols = append(setCols, n)
		}
	}
	return setCols, keyCols, keyArgs, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sqlTypeOf(v any) string {
	switch v.(type) {
	case float64, float32:
		return "DOUBLE PRECISION"
	case int, int64, int32:
		return "BIGINT"
	case bool:
		return "BOOLEAN"
	case time.Time:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func sqlTypeOfKind(k frame.Kind) string {
	switch k {
	case frame.Float:
		return "DOUBLE PRECISION"
	case frame.Int:
		return "BIGINT"
	case frame.Bool:
		return "BOOLEAN"
	case frame.Date:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func fromDB(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	default:
		return v
	}
}
