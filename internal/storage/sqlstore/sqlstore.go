// Package sqlstore keeps inspection plans in MySQL or SQLite. Scalar
// columns hold what is filtered on; the step tree and the other nested
// values are stored as JSON text.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"quality-plans/internal/config"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Storage struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Open connects with the configured driver. The schema is not touched,
// call Migrate for that.
func Open(cfg config.Storage) (*Storage, error) {
	const op = "storage.sqlstore.Open"

	var dsn string
	switch cfg.Driver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort)
		mc.DBName = cfg.DBName
		mc.ParseTime = cfg.ParseTime
		dsn = mc.FormatDSN()
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		dsn = "file:" + cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("%s: unknown driver %q", op, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	return New(db, cfg.Driver), nil
}

// New wraps an open handle.
func New(db *sql.DB, driver string) *Storage {
	return &Storage{db: db, driver: driver, now: time.Now}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables when they do not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.sqlstore.Migrate"

	stmts := sqliteSchema
	if s.driver == DriverMySQL {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS inspection_plans (
		id             VARCHAR(64)  NOT NULL PRIMARY KEY,
		name           VARCHAR(255) NOT NULL,
		revision       INT          NOT NULL,
		valid_until    VARCHAR(10)  NOT NULL,
		status         VARCHAR(16)  NOT NULL,
		products       LONGTEXT     NOT NULL,
		steps          LONGTEXT     NOT NULL,
		tags           TEXT         NOT NULL,
		efficiency     TEXT         NOT NULL,
		access_control TEXT         NOT NULL,
		created_by     VARCHAR(128) NOT NULL DEFAULT '',
		updated_by     VARCHAR(128) NOT NULL DEFAULT '',
		created_at     BIGINT       NOT NULL,
		updated_at     BIGINT       NOT NULL,
		INDEX idx_inspection_plans_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS inspection_plan_products (
		plan_id    VARCHAR(64) NOT NULL,
		product_id VARCHAR(64) NOT NULL,
		PRIMARY KEY (plan_id, product_id),
		INDEX idx_inspection_plan_products_product (product_id),
		FOREIGN KEY (plan_id) REFERENCES inspection_plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS inspection_plan_revisions (
		id         BIGINT       NOT NULL AUTO_INCREMENT PRIMARY KEY,
		plan_id    VARCHAR(64)  NOT NULL,
		revision   INT          NOT NULL,
		name       VARCHAR(255) NOT NULL,
		status     VARCHAR(16)  NOT NULL,
		updated_by VARCHAR(128) NOT NULL DEFAULT '',
		snapshot   LONGTEXT     NOT NULL,
		created_at BIGINT       NOT NULL,
		INDEX idx_inspection_plan_revisions_plan (plan_id),
		FOREIGN KEY (plan_id) REFERENCES inspection_plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS inspection_plans (
		id             TEXT    NOT NULL PRIMARY KEY,
		name           TEXT    NOT NULL,
		revision       INTEGER NOT NULL,
		valid_until    TEXT    NOT NULL,
		status         TEXT    NOT NULL,
		products       TEXT    NOT NULL,
		steps          TEXT    NOT NULL,
		tags           TEXT    NOT NULL,
		efficiency     TEXT    NOT NULL,
		access_control TEXT    NOT NULL,
		created_by     TEXT    NOT NULL DEFAULT '',
		updated_by     TEXT    NOT NULL DEFAULT '',
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_plans_status ON inspection_plans(status)`,
	`CREATE TABLE IF NOT EXISTS inspection_plan_products (
		plan_id    TEXT NOT NULL REFERENCES inspection_plans(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		PRIMARY KEY (plan_id, product_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_plan_products_product ON inspection_plan_products(product_id)`,
	`CREATE TABLE IF NOT EXISTS inspection_plan_revisions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		plan_id    TEXT    NOT NULL REFERENCES inspection_plans(id) ON DELETE CASCADE,
		revision   INTEGER NOT NULL,
		name       TEXT    NOT NULL,
		status     TEXT    NOT NULL,
		updated_by TEXT    NOT NULL DEFAULT '',
		snapshot   TEXT    NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_plan_revisions_plan ON inspection_plan_revisions(plan_id)`,
}

// isDuplicateKey reports a primary or unique key violation on either driver.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
