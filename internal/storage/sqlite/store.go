package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
)

const schemaVersion = 1

type Store struct {
	path         string
	db           *sql.DB
	PollInterval time.Duration
}

func NewStore(path string) *Store {
	return &Store{
		path:         path,
		PollInterval: constants.DefaultPollInterval,
	}
}

func (s *Store) dsn() string {
	// busy_timeout lets concurrent processes wait for the write lock
	// instead of failing immediately.
	return s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return s.validateSchemaVersion()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) validateSchemaVersion() error {
	exists, err := s.tableExists("documents")
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("database schema missing, run '%s init' first", constants.AppName)
	}

	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	return nil
}

// tableExists checks if a table exists in the SQLite database.
// The check is case-insensitive to match SQLite's behavior.
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	row := s.db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(key string, value []byte) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	_, err := s.db.Exec(`
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write document %q: %w", key, err)
	}
	return nil
}

// Watch polls PRAGMA data_version on a dedicated connection. The value
// changes whenever another connection (in this or another process) commits.
func (s *Store) Watch(ctx context.Context, onChange func(key string)) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if onChange == nil {
		return fmt.Errorf("onChange callback required")
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to open watch connection: %w", err)
	}
	last, err := dataVersion(ctx, conn)
	if err != nil {
		conn.Close()
		return err
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	go func() {
		defer conn.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current, err := dataVersion(ctx, conn)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("Failed to poll data_version", "path", s.path, "error", err)
					}
					continue
				}
				if current == last {
					continue
				}
				last = current
				keys, err := s.keys(ctx)
				if err != nil {
					logger.Warn("Failed to list documents", "path", s.path, "error", err)
					continue
				}
				for _, key := range keys {
					onChange(key)
				}
			}
		}
	}()
	return nil
}

func dataVersion(ctx context.Context, conn *sql.Conn) (int64, error) {
	var v int64
	if err := conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data_version: %w", err)
	}
	return v, nil
}

func (s *Store) keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM documents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
