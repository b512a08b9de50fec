// Package mysql implements the database adapter for the MySQL family. The
// DSN should include parseTime=true so DATETIME columns scan as time.Time;
// without it the adapter still decodes the textual forms.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/vesperdb/vesper/adapters/database"
	"github.com/vesperdb/vesper/config"
	"github.com/vesperdb/vesper/query/compiler"
	"github.com/vesperdb/vesper/runtime/types"
)

// Open connects to MySQL and wraps the pool in an adapter.
func Open(ctx context.Context, cfg config.Config) (*database.SQLAdapter, error) {
	db, err := sql.Open("mysql", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns((cfg.MaxConnections + 1) / 2)
	}
	if cfg.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutOrDefault())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	return database.New(db, Options()), nil
}

// Options returns the adapter options for a MySQL pool.
func Options() database.Options {
	return database.Options{
		Name:                 "mysql",
		Dialect:              compiler.MySQL,
		TagOf:                tagOf,
		Classify:             classify,
		SupportsLastInsertID: true,
	}
}

// tagOf maps MySQL column type names to type tags. TINYINT is treated as
// boolean, matching the BOOLEAN alias; wider small ints stay integers.
func tagOf(dbType string) (types.Tag, bool) {
	switch dbType {
	case "TINYINT", "BOOL", "BOOLEAN":
		return types.TagBool, true
	case "SMALLINT", "MEDIUMINT", "INT", "YEAR":
		return types.TagInt32, true
	case "BIGINT":
		return types.TagInt64, true
	case "FLOAT", "DOUBLE":
		return types.TagFloat64, true
	case "DECIMAL":
		return types.TagDecimal, true
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET":
		return types.TagText, true
	case "DATE", "DATETIME", "TIMESTAMP":
		return types.TagTimestamp, true
	case "JSON":
		return types.TagJSON, true
	case "BINARY", "VARBINARY", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return types.TagBytes, true
	default:
		return 0, false
	}
}
