// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package duckdbx wraps DuckDB for SQL over the written lake.
package duckdbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb/v2"
)

// LocalDB is a lightweight DuckDB wrapper for LOCAL-only queries (read_parquet on local files).
// It does NOT load httpfs/aws/azure extensions and does not seed any secrets.
type LocalDB struct {
	dbPath         string
	cleanupOnClose bool

	db *sql.DB

	// config
	memoryLimitMB int64
	tempDir       string
	poolSize      int
	threads       int
}

type localDBConfig struct {
	dbPath        *string
	poolSize      *int
	threads       *int
	memoryLimitMB int64
	tempDir       string
}

type LocalDBOption func(*localDBConfig)

const connMaxAge = 25 * time.Minute

func WithLocalDatabasePath(path string) LocalDBOption {
	return func(cfg *localDBConfig) {
		if path == "" {
			panic("WithLocalDatabasePath: path must not be empty")
		}
		cfg.dbPath = &path
	}
}

func WithLocalPoolSize(n int) LocalDBOption {
	return func(cfg *localDBConfig) {
		if n < 1 {
			n = 1
		}
		cfg.poolSize = &n
	}
}

// WithLocalThreads sets PRAGMA threads; values below 1 keep the default.
func WithLocalThreads(n int) LocalDBOption {
	return func(cfg *localDBConfig) {
		if n < 1 {
			return
		}
		cfg.threads = &n
	}
}

func WithLocalMemoryLimitMB(mb int64) LocalDBOption {
	return func(cfg *localDBConfig) { cfg.memoryLimitMB = mb }
}

func WithLocalTempDirectory(dir string) LocalDBOption {
	return func(cfg *localDBConfig) { cfg.tempDir = dir }
}

func NewLocalDB(opts ...LocalDBOption) (*LocalDB, error) {
	cfg := &localDBConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var dbPath string
	var cleanupOnClose bool
	if cfg.dbPath != nil {
		dbPath = *cfg.dbPath
	} else {
		dbDir, err := os.MkdirTemp("", "songlake-duckdb-*")
		if err != nil {
			return nil, fmt.Errorf("create temp dir for LocalDB: %w", err)
		}
		dbPath = filepath.Join(dbDir, "local.ddb")
		cleanupOnClose = true
	}

	// Default pool: half cores, capped at 8, min 1.
	poolSize := min(max(runtime.GOMAXPROCS(0)/2, 1), 8)
	if cfg.poolSize != nil {
		poolSize = *cfg.poolSize
	}

	threads := runtime.GOMAXPROCS(0)
	if cfg.threads != nil {
		threads = *cfg.threads
	}

	l := &LocalDB{
		dbPath:         dbPath,
		cleanupOnClose: cleanupOnClose,
		memoryLimitMB:  cfg.memoryLimitMB,
		tempDir:        cfg.tempDir,
		poolSize:       poolSize,
		threads:        threads,
	}

	slog.Debug("duckdbx: LocalDB init",
		"dbPath", dbPath,
		"poolSize", poolSize,
		"threads", threads,
		"memoryLimitMB", l.memoryLimitMB,
	)

	// Important: do not use request ctx inside the init hook.
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		ctx := context.Background()

		// Disable automatic extension loading/downloading.
		_, _ = execer.ExecContext(ctx, "SET autoinstall_known_extensions = false;", nil)
		_, _ = execer.ExecContext(ctx, "SET autoload_known_extensions = false;", nil)

		if l.memoryLimitMB > 0 {
			_, _ = execer.ExecContext(ctx, fmt.Sprintf("SET memory_limit='%dMB';", l.memoryLimitMB), nil)
		}
		if l.tempDir != "" {
			_, _ = execer.ExecContext(ctx, fmt.Sprintf("SET temp_directory='%s';", escapeSingle(l.tempDir)), nil)
		}
		_, _ = execer.ExecContext(ctx, "SET TimeZone = 'UTC';", nil)
		_, _ = execer.ExecContext(ctx, fmt.Sprintf("PRAGMA threads=%d;", l.threads), nil)

		return nil
	})
	if err != nil {
		if cleanupOnClose {
			_ = os.RemoveAll(filepath.Dir(dbPath))
		}
		return nil, fmt.Errorf("create duckdb connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(connMaxAge)

	l.db = db
	return l, nil
}

func (l *LocalDB) Close() error {
	var err error
	if l.db != nil {
		err = l.db.Close()
	}
	if l.cleanupOnClose && l.dbPath != "" {
		_ = os.RemoveAll(filepath.Dir(l.dbPath))
	}
	return err
}

func (l *LocalDB) GetDatabasePath() string { return l.dbPath }

func (l *LocalDB) GetConnection(ctx context.Context) (*sql.Conn, func(), error) {
	c, err := l.db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

func escapeSingle(s string) string { return strings.ReplaceAll(s, `'`, `''`) }
func quoteIdent(s string) string   { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
