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

// Package parquetwriter writes and reads the lake's tables: typed rows
// grouped into Hive-style partition directories, one or more zstd Parquet
// part files per partition, and a _SUCCESS marker once the table is whole.
package parquetwriter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/songlake/internal/logctx"
	"github.com/cardinalhq/songlake/internal/objstore"
)

// SuccessMarker is written last; a table directory without it is
// incomplete.
const SuccessMarker = "_SUCCESS"

// ErrIncompleteTable is returned when reading a table whose success marker
// is missing.
var ErrIncompleteTable = errors.New("table is incomplete or missing")

// Table describes how rows of T are laid out on storage.
type Table[T any] struct {
	// Name is the table's directory under the output root.
	Name string

	// PartitionBy lists the partition columns, outermost first.
	PartitionBy []string

	// PartitionValues returns one value per PartitionBy column.
	PartitionValues func(row T) []any

	// Less orders rows within each part file.
	Less func(a, b T) bool
}

// Result summarizes one WriteTable call.
type Result struct {
	Table      string
	Rows       int64
	Files      int
	Partitions []string
}

type partFile[T any] struct {
	key  string
	rows []T
}

// WriteTable replaces the table's directory with rows. Existing objects
// under the table are removed first, so a rerun leaves exactly one copy.
// Part files are encoded concurrently; the success marker is written only
// after all of them are stored.
func WriteTable[T any](ctx context.Context, store objstore.Store, table Table[T], rows []T, opts WriteOptions) (Result, error) {
	if table.Name == "" {
		return Result{}, errors.New("table name is required")
	}
	if len(table.PartitionBy) > 0 && table.PartitionValues == nil {
		return Result{}, fmt.Errorf("table %s: partition columns without PartitionValues", table.Name)
	}
	if opts.RunID == "" {
		return Result{}, fmt.Errorf("table %s: run id is required", table.Name)
	}
	ctx = logctx.With(ctx, slog.String("table", table.Name))

	root := objstore.DirPrefix(table.Name)
	if err := store.DeletePrefix(ctx, root); err != nil {
		return Result{}, fmt.Errorf("clearing %s: %w", store.URL(root), err)
	}

	files, partitions, err := planFiles(table, rows, opts)
	if err != nil {
		return Result{}, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, f := range files {
		g.Go(func() error {
			return writePart(gctx, store, f, opts.TmpDir)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("table %s: %w", table.Name, err)
	}

	marker := fmt.Sprintf("run_id=%s\nrows=%d\nfiles=%d\n", opts.RunID, len(rows), len(files))
	if err := store.Put(ctx, root+SuccessMarker, strings.NewReader(marker)); err != nil {
		return Result{}, fmt.Errorf("table %s: writing success marker: %w", table.Name, err)
	}

	recordTableWritten(ctx, table.Name, int64(len(rows)), len(files))

	return Result{
		Table:      table.Name,
		Rows:       int64(len(rows)),
		Files:      len(files),
		Partitions: partitions,
	}, nil
}

// planFiles groups rows by partition, orders them and splits oversized
// partitions. An empty table still gets one (empty) part file so the
// schema is discoverable.
func planFiles[T any](table Table[T], rows []T, opts WriteOptions) ([]partFile[T], []string, error) {
	perFile := opts.RowsPerFile
	if perFile <= 0 {
		perFile = DefaultRowsPerFile
	}

	groups := make(map[string][]T)
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, row := range rows {
		dir := ""
		if len(table.PartitionBy) > 0 {
			var err error
			dir, err = PartitionPath(table.PartitionBy, table.PartitionValues(row))
			if err != nil {
				return nil, nil, fmt.Errorf("table %s: %w", table.Name, err)
			}
		}
		seen.Add(dir)
		groups[dir] = append(groups[dir], row)
	}

	partitions := seen.ToSlice()
	sort.Strings(partitions)

	if len(rows) == 0 {
		return []partFile[T]{{key: partKey(table.Name, "", opts.RunID, 0)}}, nil, nil
	}

	var files []partFile[T]
	for _, dir := range partitions {
		group := groups[dir]
		if table.Less != nil {
			sort.SliceStable(group, func(i, j int) bool { return table.Less(group[i], group[j]) })
		}
		for i, start := 0, 0; start < len(group); i, start = i+1, start+perFile {
			end := min(start+perFile, len(group))
			files = append(files, partFile[T]{
				key:  partKey(table.Name, dir, opts.RunID, i),
				rows: group[start:end],
			})
		}
	}
	return files, partitions, nil
}

func partKey(table, dir, runID string, seq int) string {
	return objstore.Join(table, dir, fmt.Sprintf("part-%05d-%s.zstd.parquet", seq, runID))
}

func writePart[T any](ctx context.Context, store objstore.Store, f partFile[T], tmpdir string) error {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf, WriterOptions(tmpdir)...)
	if len(f.rows) > 0 {
		if _, err := w.Write(f.rows); err != nil {
			_ = w.Close()
			return fmt.Errorf("encoding %s: %w", f.key, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", f.key, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	size := buf.Len()
	if err := store.Put(ctx, f.key, &buf); err != nil {
		return err
	}
	logctx.FromContext(ctx).Debug("Wrote part file",
		slog.String("key", f.key),
		slog.Int("rows", len(f.rows)),
		slog.Int("bytes", size))
	return nil
}

// IsComplete reports whether the table's success marker exists.
func IsComplete(ctx context.Context, store objstore.Store, name string) (bool, error) {
	rc, err := store.Get(ctx, objstore.DirPrefix(name)+SuccessMarker)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_ = rc.Close()
	return true, nil
}

// PartFiles lists the table's Parquet part files, sorted by key.
func PartFiles(ctx context.Context, store objstore.Store, name string) ([]string, error) {
	objects, err := store.List(ctx, objstore.DirPrefix(name))
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, o := range objects {
		if strings.HasSuffix(o.Key, ".parquet") {
			keys = append(keys, o.Key)
		}
	}
	return keys, nil
}

// ReadTable loads every row of a completed table. Files are read
// concurrently and concatenated in key order.
func ReadTable[T any](ctx context.Context, store objstore.Store, name string) ([]T, error) {
	ok, err := IsComplete(ctx, store, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteTable, store.URL(name))
	}

	keys, err := PartFiles(ctx, store, name)
	if err != nil {
		return nil, err
	}

	parts := make([][]T, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, key := range keys {
		g.Go(func() error {
			rows, err := readPart[T](gctx, store, key)
			if err != nil {
				return err
			}
			parts[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []T
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func readPart[T any](ctx context.Context, store objstore.Store, key string) ([]T, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return rows, nil
}
