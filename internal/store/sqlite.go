package store

import (
	"database/sql"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS ippure_reports (
			cache_key   TEXT PRIMARY KEY,
			data        TEXT NOT NULL,
			score_field TEXT NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_updated_at ON ippure_reports(updated_at)`,
	},
	get: "SELECT data FROM ippure_reports WHERE cache_key = ? AND updated_at > ?",
	upsert: `INSERT INTO ippure_reports (cache_key, data, score_field, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET data=excluded.data, score_field=excluded.score_field, updated_at=excluded.updated_at`,
	purge: "DELETE FROM ippure_reports WHERE updated_at <= ?",
}

func NewSQLite(dbPath string, ttl time.Duration, log *zap.Logger) (Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// single writer
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	return open(db, sqliteDialect, ttl, log.With(zap.String("path", dbPath)))
}
