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

// Package duckdbx wraps a local, in-process DuckDB database used for
// analytic queries over downloaded export files.
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

// LocalDB is a DuckDB wrapper for queries over local files only. Extension
// auto-install and auto-load are disabled; no remote filesystems are
// configured.
type LocalDB struct {
	dbPath         string
	cleanupOnClose bool

	db *sql.DB

	memoryLimitMB  int64
	tempDir        string
	maxTempDirSize string
	poolSize       int
	threads        int
	connMaxAge     time.Duration
}

type localDBConfig struct {
	dbPath         *string
	threads        *int
	memoryLimitMB  int64
	tempDir        string
	maxTempDirSize string
}

type LocalDBOption func(*localDBConfig)

// WithLocalDatabasePath keeps the database at path instead of a temporary
// directory removed on Close.
func WithLocalDatabasePath(path string) LocalDBOption {
	return func(cfg *localDBConfig) {
		if path == "" {
			panic("WithLocalDatabasePath: path must not be empty")
		}
		cfg.dbPath = &path
	}
}

// WithLocalThreads sets PRAGMA threads. Values below 1 leave the default.
func WithLocalThreads(n int) LocalDBOption {
	return func(cfg *localDBConfig) {
		if n < 1 {
			return
		}
		cfg.threads = &n
	}
}

// WithLocalMemoryLimitMB sets memory_limit. Zero means DuckDB's default.
func WithLocalMemoryLimitMB(mb int64) LocalDBOption {
	return func(cfg *localDBConfig) { cfg.memoryLimitMB = mb }
}

// WithLocalTempDirectory sets where DuckDB spills when over its memory limit.
func WithLocalTempDirectory(dir string) LocalDBOption {
	return func(cfg *localDBConfig) { cfg.tempDir = dir }
}

// WithLocalMaxTempDirectorySize caps spill size, e.g. "40GB". Empty means no cap.
func WithLocalMaxTempDirectorySize(size string) LocalDBOption {
	return func(cfg *localDBConfig) { cfg.maxTempDirSize = size }
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
		dbDir, err := os.MkdirTemp("", "isamples-duckdb-*")
		if err != nil {
			return nil, fmt.Errorf("create temp dir for LocalDB: %w", err)
		}
		dbPath = filepath.Join(dbDir, "local.ddb")
		cleanupOnClose = true
	}

	poolSize := 2
	threads := runtime.GOMAXPROCS(0)
	if cfg.threads != nil {
		threads = *cfg.threads
	}
	connMaxAge := 25 * time.Minute

	l := &LocalDB{
		dbPath:         dbPath,
		cleanupOnClose: cleanupOnClose,
		memoryLimitMB:  cfg.memoryLimitMB,
		tempDir:        cfg.tempDir,
		maxTempDirSize: cfg.maxTempDirSize,
		poolSize:       poolSize,
		threads:        threads,
		connMaxAge:     connMaxAge,
	}

	slog.Debug("duckdbx: LocalDB init",
		slog.String("dbPath", dbPath),
		slog.Int("poolSize", poolSize),
		slog.Int("threads", threads),
		slog.Int64("memoryLimitMB", l.memoryLimitMB))

	// Runs once per new connection; must not capture a request context.
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		ctx := context.Background()
		for _, stmt := range l.setupStatements() {
			if _, err := execer.ExecContext(ctx, stmt, nil); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
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

func (l *LocalDB) setupStatements() []string {
	stmts := []string{
		"SET autoinstall_known_extensions = false;",
		"SET autoload_known_extensions = false;",
		fmt.Sprintf("PRAGMA threads=%d;", l.threads),
	}
	if l.memoryLimitMB > 0 {
		stmts = append(stmts, fmt.Sprintf("SET memory_limit='%dMB';", l.memoryLimitMB))
	}
	if l.tempDir != "" {
		stmts = append(stmts, fmt.Sprintf("SET temp_directory='%s';", EscapeString(l.tempDir)))
	}
	if l.maxTempDirSize != "" {
		stmts = append(stmts, fmt.Sprintf("SET max_temp_directory_size='%s';", EscapeString(l.maxTempDirSize)))
	}
	return stmts
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

// GetConnection returns a pooled connection and its release function.
func (l *LocalDB) GetConnection(ctx context.Context) (*sql.Conn, func(), error) {
	c, err := l.db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

// EscapeString escapes s for use inside a single-quoted SQL literal.
func EscapeString(s string) string { return strings.ReplaceAll(s, `'`, `''`) }
