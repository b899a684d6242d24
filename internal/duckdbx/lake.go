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

package duckdbx

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/songlake/internal/objstore"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
)

// Lake is a DuckDB database with one view per completed lake table.
// Lakes on remote stores are mirrored to a local directory first.
type Lake struct {
	db      *LocalDB
	root    string
	mirror  string
	Tables  []string
	Missing []string
}

// OpenLake creates views for tables found complete in store. Tables without
// a success marker are listed in Missing and get no view.
func OpenLake(ctx context.Context, store objstore.Store, tables []string, opts ...LocalDBOption) (*Lake, error) {
	lake := &Lake{}

	var complete []string
	for _, name := range tables {
		ok, err := parquetwriter.IsComplete(ctx, store, name)
		if err != nil {
			return nil, err
		}
		if ok {
			complete = append(complete, name)
		} else {
			lake.Missing = append(lake.Missing, name)
		}
	}

	if fs, ok := store.(*objstore.FileStore); ok {
		lake.root = fs.Root()
	} else {
		dir, err := os.MkdirTemp("", "songlake-mirror-*")
		if err != nil {
			return nil, fmt.Errorf("create mirror dir: %w", err)
		}
		lake.root, lake.mirror = dir, dir
		if err := mirrorTables(ctx, store, objstore.NewFileStore(dir), complete); err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
	}

	db, err := NewLocalDB(opts...)
	if err != nil {
		lake.removeMirror()
		return nil, err
	}
	lake.db = db

	conn, release, err := db.GetConnection(ctx)
	if err != nil {
		_ = lake.Close()
		return nil, err
	}
	defer release()

	for _, name := range complete {
		if _, err := conn.ExecContext(ctx, viewSQL(lake.root, name)); err != nil {
			_ = lake.Close()
			return nil, fmt.Errorf("create view %s: %w", name, err)
		}
		lake.Tables = append(lake.Tables, name)
	}
	return lake, nil
}

func viewSQL(root, name string) string {
	glob := filepath.ToSlash(filepath.Join(root, name)) + "/**/*.parquet"
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet('%s', hive_partitioning = false)",
		quoteIdent(name), escapeSingle(glob))
}

func mirrorTables(ctx context.Context, src objstore.Store, dst *objstore.FileStore, tables []string) error {
	var keys []string
	for _, name := range tables {
		parts, err := parquetwriter.PartFiles(ctx, src, name)
		if err != nil {
			return err
		}
		keys = append(keys, parts...)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, key := range keys {
		g.Go(func() error {
			rc, err := src.Get(gctx, key)
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()
			return dst.Put(gctx, key, rc)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("mirroring lake: %w", err)
	}
	slog.Debug("duckdbx: mirrored lake", "files", len(keys), "elapsed", time.Since(start))
	return nil
}

func (l *Lake) removeMirror() {
	if l.mirror != "" {
		_ = os.RemoveAll(l.mirror)
	}
}

func (l *Lake) Close() error {
	var err error
	if l.db != nil {
		err = l.db.Close()
	}
	l.removeMirror()
	return err
}

// Result is a query result rendered to strings.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Query runs q and renders every value; NULL is rendered as "NULL".
func (l *Lake) Query(ctx context.Context, q string, args ...any) (*Result, error) {
	conn, release, err := l.db.GetConnection(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rendered := make([]string, len(cols))
		for i, v := range vals {
			rendered[i] = render(v)
		}
		res.Rows = append(res.Rows, rendered)
	}
	return res, rows.Err()
}

// QueryInt runs a query returning a single integer.
func (l *Lake) QueryInt(ctx context.Context, q string, args ...any) (int64, error) {
	conn, release, err := l.db.GetConnection(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	var n sql.NullInt64
	if err := conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
