package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const defaultMaxOpenConns = 10

// sqliteBusyTimeout makes concurrent uploads wait for the write lock instead
// of failing with SQLITE_BUSY.
const sqliteBusyTimeout = "_pragma=busy_timeout(5000)"

// Init opens the database with a bounded pool. Each request holds at most
// one connection; a batch job holds one for its whole scan.
func Init(driver, connection string, maxOpenConns int) (*sqlx.DB, error) {
	if driver == "sqlite" {
		path, _, _ := strings.Cut(connection, "?")
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		connection = withSQLitePragmas(connection)
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(min(5, maxOpenConns))
	db.SetConnMaxLifetime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver, "max_open_conns", maxOpenConns)

	return db, nil
}

// withSQLitePragmas adds a busy timeout unless the DSN already sets one.
func withSQLitePragmas(connection string) string {
	if strings.Contains(connection, "busy_timeout") {
		return connection
	}
	if strings.Contains(connection, "?") {
		return connection + "&" + sqliteBusyTimeout
	}
	return connection + "?" + sqliteBusyTimeout
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
