package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gocraft/dbr/v2"
	"github.com/gocraft/dbr/v2/dialect"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

type Store struct {
	conn   *dbr.Connection
	sess   *dbr.Session
	logger *zap.Logger

	jobs  table[models.Job]
	media table[models.Media]
}

func New(dsn string, logger *zap.Logger) (*Store, error) {
	conn, err := dbr.Open("postgres", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// set up connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("successfully connected to PostgreSQL")

	return newStore(conn, logger), nil
}

// NewWithDB wraps an already opened *sql.DB speaking the PostgreSQL dialect.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Store {
	conn := &dbr.Connection{
		DB:            db,
		Dialect:       dialect.PostgreSQL,
		EventReceiver: &dbr.NullEventReceiver{},
	}
	return newStore(conn, logger)
}

func newStore(conn *dbr.Connection, logger *zap.Logger) *Store {
	return &Store{
		conn:   conn,
		sess:   conn.NewSession(nil),
		logger: logger,
		jobs:   table[models.Job]{name: "jobs"},
		media:  table[models.Media]{name: "job_media", columns: mediaMetaColumns},
	}
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) BeginTx(ctx context.Context) (*dbr.Tx, error) {
	return s.sess.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
}

// inTx runs fn in a read-committed transaction scoped to one operation. The
// transaction is rolled back when fn or the commit fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *dbr.Tx) error) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
