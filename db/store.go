package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sysrecv/models"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/mattn/go-sqlite3"
)

// sqliteFoldDriver is sqlite3 with fold(), a Unicode lower-casing function.
// SQLite's own LOWER only folds ASCII.
const sqliteFoldDriver = "sqlite3_fold"

func init() {
	sql.Register(sqliteFoldDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

var (
	ErrUnknownDriver = errors.New("unknown database driver")
	ErrUnknownField  = errors.New("unknown field")
)

// Field names a column that DistinctValues can list.
type Field string

const (
	FieldHostname Field = "hostname"
	FieldAppName  Field = "appName"
)

// Store persists log records. Implementations must be safe for concurrent use.
type Store interface {
	// Append stores one record.
	Append(ctx context.Context, record models.LogRecord) error

	// Query returns the records matching filter, most recent first.
	Query(ctx context.Context, filter QueryFilter) ([]models.LogRecord, error)

	// DistinctValues lists every value of field, ignoring any filter.
	DistinctValues(ctx context.Context, field Field) ([]string, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Supported drivers
const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
	DriverMemory = "memory"
)

// Open creates the store for driver. path is the database file; an empty
// path or ":memory:" keeps the database in memory.
func Open(driver, path string, debug bool) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverDuckDB:
		return NewSQLStore(driver, path, debug)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS logs (
	    id TEXT PRIMARY KEY,
	    priority INTEGER NOT NULL,
	    facility INTEGER NOT NULL,
	    severity INTEGER NOT NULL,
	    version TEXT NOT NULL,
	    timestamp TEXT NOT NULL,
	    hostname TEXT NOT NULL,
	    app_name TEXT NOT NULL,
	    procid TEXT NOT NULL,
	    msgid TEXT NOT NULL,
	    structured_data TEXT NOT NULL,
	    msg TEXT NOT NULL,
	    raw_message TEXT NOT NULL,
	    source_ip TEXT NOT NULL,
	    received_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_received_at ON logs(received_at)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_hostname ON logs(hostname)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_app_name ON logs(app_name)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_severity ON logs(severity)`,
}

const selectColumns = `id, priority, facility, severity, version, timestamp,
	hostname, app_name, procid, msgid, structured_data, msg,
	raw_message, source_ip, received_at`

// SQLStore keeps records in a SQLite or DuckDB database.
type SQLStore struct {
	db     *sql.DB
	driver string
	debug  bool
}

// NewSQLStore opens the database and creates the schema if needed.
func NewSQLStore(driver, path string, debug bool) (*SQLStore, error) {
	dsn, err := dataSourceName(driver, path)
	if err != nil {
		return nil, err
	}

	driverName := driver
	if driver == DriverSQLite {
		driverName = sqliteFoldDriver
	}

	dbInstance, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One connection serializes writers and keeps ":memory:" a single database
		dbInstance.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: dbInstance, driver: driver, debug: debug}

	for _, stmt := range schema {
		if _, err := dbInstance.Exec(stmt); err != nil {
			dbInstance.Close()
			return nil, fmt.Errorf("failed to create logs table: %w", err)
		}
	}

	log.Printf("Logs table created or already exists (%s)", driver)
	return s, nil
}

func dataSourceName(driver, path string) (string, error) {
	inMemory := path == "" || path == ":memory:"

	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	switch driver {
	case DriverSQLite:
		if inMemory {
			path = ":memory:"
		}
		return path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", nil
	case DriverDuckDB:
		if inMemory {
			return "", nil
		}
		return path, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Append stores one record.
func (s *SQLStore) Append(ctx context.Context, r models.LogRecord) error {
	query := `
		INSERT INTO logs (
			id, priority, facility, severity, version, timestamp,
			hostname, app_name, procid, msgid, structured_data, msg,
			raw_message, source_ip, received_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	params := []any{
		r.ID, r.Priority, r.Facility, r.Severity, r.Version, r.Timestamp,
		r.Hostname, r.AppName, r.ProcID, r.MsgID, r.StructuredData, r.Message,
		r.RawMessage, r.SourceIP, r.ReceivedAt.UnixNano(),
	}

	defer s.trace(time.Now(), query, params)

	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return fmt.Errorf("failed to store log: %w", err)
	}
	return nil
}

// Query returns the records matching filter, most recent first.
func (s *SQLStore) Query(ctx context.Context, filter QueryFilter) ([]models.LogRecord, error) {
	filter = filter.Normalize()

	var conditions []string
	var params []any

	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conditions = append(conditions, fmt.Sprintf(`(%s LIKE ? ESCAPE '\' OR %s LIKE ? ESCAPE '\')`,
			s.lower("msg"), s.lower("raw_message")))
		params = append(params, pattern, pattern)
	}
	if filter.Severity != nil {
		conditions = append(conditions, "severity = ?")
		params = append(params, *filter.Severity)
	}
	if filter.Hostname != "" {
		conditions = append(conditions, "hostname = ?")
		params = append(params, filter.Hostname)
	}
	if filter.AppName != "" {
		conditions = append(conditions, "app_name = ?")
		params = append(params, filter.AppName)
	}

	query := "SELECT " + selectColumns + " FROM logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY received_at DESC LIMIT ?"
	params = append(params, filter.Limit)

	defer s.trace(time.Now(), query, params)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	records := make([]models.LogRecord, 0)
	for rows.Next() {
		var r models.LogRecord
		var receivedAt int64
		if err := rows.Scan(
			&r.ID, &r.Priority, &r.Facility, &r.Severity, &r.Version, &r.Timestamp,
			&r.Hostname, &r.AppName, &r.ProcID, &r.MsgID, &r.StructuredData, &r.Message,
			&r.RawMessage, &r.SourceIP, &receivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		r.ReceivedAt = time.Unix(0, receivedAt).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log rows: %w", err)
	}

	return records, nil
}

// lower wraps column in the driver's Unicode-aware lower-casing function.
func (s *SQLStore) lower(column string) string {
	if s.driver == DriverSQLite {
		return "fold(" + column + ")"
	}
	return "LOWER(" + column + ")"
}

// DistinctValues lists every stored value of field in ascending order.
func (s *SQLStore) DistinctValues(ctx context.Context, field Field) ([]string, error) {
	var column string
	switch field {
	case FieldHostname:
		column = "hostname"
	case FieldAppName:
		column = "app_name"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM logs ORDER BY %s", column, column)
	defer s.trace(time.Now(), query, nil)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", field, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", field, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s values: %w", field, err)
	}

	return values, nil
}

// Count returns the total number of stored records.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query := "SELECT COUNT(*) FROM logs"
	defer s.trace(time.Now(), query, nil)

	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return int(count), nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
