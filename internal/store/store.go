// Package store keeps a history of merged reports in SQL so repeated lookups
// of the same address can be answered without hitting IPPure.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/model"
)

// Store is a persistent report cache.
type Store interface {
	Get(ctx context.Context, key string) (*model.Report, bool)
	Set(ctx context.Context, key string, r *model.Report)
	Size(ctx context.Context) int
	Cleanup(ctx context.Context)
	Close()
}

// New opens the store of the given kind: sqlite, mysql or postgres.
func New(kind, dsn string, ttl time.Duration, log *zap.Logger) (Store, error) {
	switch kind {
	case "", "sqlite":
		return NewSQLite(dsn, ttl, log)
	case "mysql":
		return NewMySQL(dsn, ttl, log)
	case "postgres", "postgresql":
		return NewPostgres(dsn, ttl, log)
	default:
		return nil, fmt.Errorf("unknown persistent cache type %q", kind)
	}
}

// dialect holds the statements that differ between drivers.
type dialect struct {
	name   string
	schema []string
	get    string
	upsert string
	purge  string
}

type sqlStore struct {
	db      *sql.DB
	dialect dialect
	ttl     time.Duration
	log     *zap.Logger
	stop    chan struct{}
}

func open(db *sql.DB, d dialect, ttl time.Duration, log *zap.Logger) (*sqlStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s schema: %w", d.name, err)
		}
	}

	s := &sqlStore{
		db:      db,
		dialect: d,
		ttl:     ttl,
		log:     log,
		stop:    make(chan struct{}),
	}
	go s.cleanupLoop()

	log.Info("persistent cache opened", zap.String("driver", d.name), zap.Duration("ttl", ttl))
	return s, nil
}

func (s *sqlStore) Get(ctx context.Context, key string) (*model.Report, bool) {
	cutoff := time.Now().Add(-s.ttl).Unix()
	var data string
	if err := s.db.QueryRowContext(ctx, s.dialect.get, key, cutoff).Scan(&data); err != nil {
		return nil, false
	}

	var r model.Report
	if json.Unmarshal([]byte(data), &r) != nil {
		return nil, false
	}
	r.Cached = true
	return &r, true
}

func (s *sqlStore) Set(ctx context.Context, key string, r *model.Report) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, string(data), r.ScoreField, time.Now().Unix()); err != nil {
		s.log.Warn("persist report failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *sqlStore) Size(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ippure_reports").Scan(&count); err != nil {
		return 0
	}
	return count
}

// Cleanup removes expired entries.
func (s *sqlStore) Cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl).Unix()
	result, err := s.db.ExecContext(ctx, s.dialect.purge, cutoff)
	if err != nil {
		s.log.Error("cleanup failed", zap.Error(err))
		return
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		s.log.Info("cleanup removed expired reports", zap.Int64("count", affected))
	}
}

func (s *sqlStore) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *sqlStore) Close() {
	close(s.stop)
	s.db.Close()
	s.log.Info("persistent cache closed", zap.String("driver", s.dialect.name))
}
