package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
)

type Store struct {
	connStr string
	channel string
	db      *sql.DB
}

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

func New(connStr string) *Store {
	s := &Store{
		connStr: connStr,
		channel: constants.NotificationChannel,
	}
	s.ensureSearchPath()
	return s
}

func (s *Store) ensureSearchPath() {
	if strings.HasPrefix(s.connStr, "postgres://") || strings.HasPrefix(s.connStr, "postgresql://") {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
	} else if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

// hasParam returns true if the DSN-style connection string contains the
// parameter key (case-insensitive).
func hasParam(connStr, key string) bool {
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// hasSSLMode checks if the connection string contains an sslmode parameter key (case-insensitive).
// It supports both URL-style and DSN-style connection strings.
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	return hasParam(connStr, "sslmode")
}

// ValidateConnString checks if a connection string is a valid
// PostgreSQL connection string (URI or DSN) and ensures it does not
// contain a password.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		parsedURL, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := parsedURL.User.Password(); isSet {
			return false, ErrEmbeddedCredentials
		}
		if parsedURL.Host == "" && parsedURL.User == nil && (parsedURL.Path == "" || parsedURL.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
	} else if hasParam(connStr, "password") {
		return false, ErrEmbeddedCredentials
	}

	return true, nil
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return nil, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (s *Store) Init() error {
	db, err := s.open()
	if err != nil {
		return err
	}

	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + constants.AppName,
		`CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	s.db = db
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	db, err := s.open()
	if err != nil {
		return err
	}

	var table sql.NullString
	if err := db.QueryRow(`SELECT to_regclass('documents')::text`).Scan(&table); err != nil {
		db.Close()
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if !table.Valid {
		db.Close()
		return fmt.Errorf("database schema missing, run '%s init' first", constants.AppName)
	}

	s.db = db
	return nil
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
	// Return a non-sensitive identifier instead of the full connection string
	return "postgresql"
}

func (s *Store) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts the document and emits pg_notify in the same transaction,
// so listeners are only told about committed writes.
func (s *Store) Set(key string, value []byte) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO documents (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value)); err != nil {
		return fmt.Errorf("failed to write document %q: %w", key, err)
	}
	if _, err := tx.Exec(`SELECT pg_notify($1, $2)`, s.channel, key); err != nil {
		return fmt.Errorf("failed to notify listeners: %w", err)
	}
	return tx.Commit()
}

// Watch LISTENs on the notification channel. After a reconnect pq delivers
// a nil notification; every key is then reported since events may be lost.
func (s *Store) Watch(ctx context.Context, onChange func(key string)) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if onChange == nil {
		return fmt.Errorf("onChange callback required")
	}

	listener := pq.NewListener(s.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Postgres listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(s.channel); err != nil {
		listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.channel, err)
	}

	go func() {
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				if n != nil {
					onChange(n.Extra)
					continue
				}
				keys, err := s.keys(ctx)
				if err != nil {
					logger.Warn("Failed to list documents after reconnect", "error", err)
					continue
				}
				for _, key := range keys {
					onChange(key)
				}
			case <-time.After(90 * time.Second):
				go listener.Ping()
			}
		}
	}()
	return nil
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
