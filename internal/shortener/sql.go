package shortener

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect describes the SQL differences between the supported drivers.
type Dialect struct {
	Driver      string
	placeholder string
	schema      string
}

var (
	DialectPostgres = Dialect{
		Driver:      "postgres",
		placeholder: "$1",
		schema:      `CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, url TEXT NOT NULL UNIQUE)`,
	}
	DialectPgx = Dialect{
		Driver:      "pgx",
		placeholder: "$1",
		schema:      DialectPostgres.schema,
	}
	DialectSQLite = Dialect{
		Driver:      "sqlite3",
		placeholder: "?",
		schema:      `CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, url TEXT NOT NULL UNIQUE)`,
	}
)

// DialectFor returns the Dialect registered for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DialectPostgres.Driver:
		return DialectPostgres, nil
	case DialectPgx.Driver:
		return DialectPgx, nil
	case DialectSQLite.Driver:
		return DialectSQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLRepository is a Repository backed by a relational table with an
// autoincrement id column and a unique url column.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	table   string

	findIDQuery  string
	insertQuery  string
	findURLQuery string
}

// OpenSQLRepository opens dsn with the dialect's driver and verifies the
// connection.
func OpenSQLRepository(ctx context.Context, dialect Dialect, dsn, table string) (*SQLRepository, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Driver, err)
	}

	repo, err := NewSQLRepository(db, dialect, table)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect.Driver, err)
	}

	return repo, nil
}

// NewSQLRepository wraps an open database handle. The repository takes
// ownership of db and closes it in Close.
func NewSQLRepository(db *sql.DB, dialect Dialect, table string) (*SQLRepository, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	quoted := pq.QuoteIdentifier(table)
	p := dialect.placeholder

	return &SQLRepository{
		db:           db,
		dialect:      dialect,
		table:        quoted,
		findIDQuery:  fmt.Sprintf(`SELECT id FROM %s WHERE url = %s LIMIT 1`, quoted, p),
		insertQuery:  fmt.Sprintf(`INSERT INTO %s (url) VALUES (%s) RETURNING id`, quoted, p),
		findURLQuery: fmt.Sprintf(`SELECT url FROM %s WHERE id = %s`, quoted, p),
	}, nil
}

// Migrate creates the table if it does not exist yet.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(r.dialect.schema, r.table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

func (r *SQLRepository) FindIDByURL(ctx context.Context, url string) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, r.findIDQuery, url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find id for url: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) InsertURL(ctx context.Context, url string) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, r.insertQuery, url).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("failed to save url: %w", err)
	}
	return id, nil
}

func (r *SQLRepository) FindURLByID(ctx context.Context, id uint64) (string, error) {
	var url string
	err := r.db.QueryRowContext(ctx, r.findURLQuery, id).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get url for id %d: %w", id, err)
	}
	return url, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}

var _ Repository = (*SQLRepository)(nil)
