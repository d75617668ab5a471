package store

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS ippure_reports (
			cache_key   VARCHAR(64) PRIMARY KEY,
			data        TEXT NOT NULL,
			score_field VARCHAR(16) NOT NULL,
			updated_at  BIGINT NOT NULL,
			INDEX idx_reports_updated_at (updated_at)
		)`,
	},
	get: "SELECT data FROM ippure_reports WHERE cache_key = ? AND updated_at > ?",
	upsert: `INSERT INTO ippure_reports (cache_key, data, score_field, updated_at) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE data=VALUES(data), score_field=VALUES(score_field), updated_at=VALUES(updated_at)`,
	purge: "DELETE FROM ippure_reports WHERE updated_at <= ?",
}

func NewMySQL(dsn string, ttl time.Duration, log *zap.Logger) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return open(db, mysqlDialect, ttl, log)
}
