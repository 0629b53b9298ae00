package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/issafronov/urlscan/internal/middleware/logger"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx"
	_ "github.com/jackc/pgx/stdlib"
	"go.uber.org/zap"
)

// PostgresStorage хранит записи в таблице kv_entries
type PostgresStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStorage подключается к базе и создаёт таблицу, если её ещё нет
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS kv_entries (
	   key TEXT PRIMARY KEY,
	   value TEXT NOT NULL,
	   expires_at TIMESTAMPTZ NOT NULL
	);
	`

	if _, err = db.ExecContext(ctx, createTableQuery); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresStorage{db: db, now: time.Now}, nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt time.Time
	err := s.db.QueryRowContext(
		ctx,
		"SELECT value, expires_at FROM kv_entries WHERE key = $1",
		key,
	).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	now := s.now()
	if !now.Before(expiresAt) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = $1 AND expires_at <= $2", key, now); err != nil {
			logger.Log.Info("Failed to delete expired entry", zap.String("key", key), zap.Error(err))
		}
		return "", ErrNotFound
	}
	return value, nil
}

func (s *PostgresStorage) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl)

	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO kv_entries (key, value, expires_at) VALUES ($1, $2, $3)",
		key, value, expiresAt,
	)
	if err == nil {
		return nil
	}

	var pgErr pgx.PgError
	if !errors.As(err, &pgErr) || !pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return err
	}

	// ключ уже есть: перезаписываем значение и срок жизни
	_, err = s.db.ExecContext(
		ctx,
		"UPDATE kv_entries SET value = $2, expires_at = $3 WHERE key = $1",
		key, value, expiresAt,
	)
	return err
}

// Close закрывает соединение с базой
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
