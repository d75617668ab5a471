package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS ippure_reports (
			cache_key   VARCHAR(64) PRIMARY KEY,
			data        TEXT NOT NULL,
			score_field VARCHAR(16) NOT NULL,
			updated_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_updated_at ON ippure_reports(updated_at)`,
	},
	get: "SELECT data FROM ippure_reports WHERE cache_key = $1 AND updated_at > $2",
	upsert: `INSERT INTO ippure_reports (cache_key, data, score_field, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cache_key) DO UPDATE SET data=EXCLUDED.data, score_field=EXCLUDED.score_field, updated_at=EXCLUDED.updated_at`,
	purge: "DELETE FROM ippure_reports WHERE updated_at <= $1",
}

func NewPostgres(dsn string, ttl time.Duration, log *zap.Logger) (Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return open(db, postgresDialect, ttl, log)
}
