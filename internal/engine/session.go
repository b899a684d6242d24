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

// Package engine is the batch engine under the pipeline: a Session holding
// the input and output stores plus the parallelism knobs, and data-parallel
// helpers for reading raw records and reading or writing lake tables.
package engine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/cardinalhq/songlake/internal/idgen"
	"github.com/cardinalhq/songlake/internal/logctx"
	"github.com/cardinalhq/songlake/internal/objstore"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
)

// Session is the compute context every stage receives explicitly.
type Session struct {
	Input   objstore.Store
	Output  objstore.Store
	Workers int
	TmpDir  string
	RunID   string
	Logger  *slog.Logger
}

type Option func(*Session)

// WithWorkers sets the parallelism for reads, dedup shards and writes.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.Workers = n
		}
	}
}

func WithTmpDir(dir string) Option {
	return func(s *Session) {
		s.TmpDir = dir
	}
}

// WithRunID pins the run id, which otherwise is a fresh ULID.
func WithRunID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.RunID = id
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewSession binds input and output stores into a Session.
func NewSession(input, output objstore.Store, opts ...Option) *Session {
	s := &Session{
		Input:   input,
		Output:  output,
		Workers: runtime.GOMAXPROCS(0),
		RunID:   idgen.NewRunID(),
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Logger = s.Logger.With(slog.String("runID", s.RunID))
	return s
}

// Context attaches the session logger to ctx.
func (s *Session) Context(ctx context.Context) context.Context {
	return logctx.WithLogger(ctx, s.Logger)
}

func (s *Session) writeOptions() parquetwriter.WriteOptions {
	return parquetwriter.WriteOptions{
		RunID:       s.RunID,
		Concurrency: s.Workers,
		TmpDir:      s.TmpDir,
	}
}

// WriteTable writes rows as table under the session's output root.
func WriteTable[T any](ctx context.Context, s *Session, table parquetwriter.Table[T], rows []T) (parquetwriter.Result, error) {
	start := time.Now()
	res, err := parquetwriter.WriteTable(ctx, s.Output, table, rows, s.writeOptions())
	if err != nil {
		return res, err
	}
	s.Logger.Info("Wrote table",
		slog.String("table", table.Name),
		slog.Int64("rows", res.Rows),
		slog.Int("files", res.Files),
		slog.Int("partitions", len(res.Partitions)),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// ReadTable reads a completed table back from the session's output root.
func ReadTable[T any](ctx context.Context, s *Session, name string) ([]T, error) {
	return parquetwriter.ReadTable[T](ctx, s.Output, name)
}
