package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS graphvm_captures (
			id VARCHAR(255) NOT NULL PRIMARY KEY,
			event_count INT NOT NULL,
			events LONGBLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS graphvm_timelines (
			id VARCHAR(255) NOT NULL PRIMARY KEY,
			frame_count INT NOT NULL,
			frames LONGBLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS graphvm_proposals (
			id BIGINT NOT NULL PRIMARY KEY,
			graph_id BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL,
			data LONGBLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_proposals_status (status)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS graphvm_proposal_ids (
			id BIGINT NOT NULL PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	},
	upsert: mysqlUpsert,
}

// MySQLStore is a MySQL/MariaDB Store for shared use (CI, teams).
//
// The DSN format is the go-sql-driver one:
//
//	user:password@tcp(localhost:3306)/graphvm?parseTime=true
//
// Never hardcode credentials; read the DSN from GRAPHVM_STORE_DSN.
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore connects, verifies the connection and creates the tables.
func NewMySQLStore(ctx context.Context, dsn string, opts ...Option) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s, err := newSQLStore(ctx, db, mysqlDialect, buildOptions(opts))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &MySQLStore{sqlStore: s}, nil
}
