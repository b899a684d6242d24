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

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/songlake/internal/filereader"
	"github.com/cardinalhq/songlake/internal/logctx"
	"github.com/cardinalhq/songlake/internal/model"
	"github.com/cardinalhq/songlake/internal/objstore"
)

// ReadStats counts what a ReadRecords call consumed.
type ReadStats struct {
	Files int
	Rows  int64
}

// PositionFunc stamps a decoded record with its source position.
type PositionFunc[T any] func(rec *T, pos model.Pos)

// SongFiles lists the input keys matching the song glob pattern.
func (s *Session) SongFiles(ctx context.Context, pattern string) ([]string, error) {
	keys, err := objstore.Glob(ctx, s.Input, pattern)
	if err != nil {
		return nil, fmt.Errorf("listing song files: %w", err)
	}
	return keys, nil
}

// LogFiles lists every JSON lines file under prefix.
func (s *Session) LogFiles(ctx context.Context, prefix string) ([]string, error) {
	objects, err := s.Input.List(ctx, objstore.DirPrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("listing log files: %w", err)
	}
	var keys []string
	for _, o := range objects {
		if filereader.IsJSONKey(o.Key) {
			keys = append(keys, o.Key)
		}
	}
	return keys, nil
}

// ReadRecords reads keys from the input store concurrently and decodes every
// row into T. The result is ordered by (key index, line) regardless of which
// file finished first. translator may be nil.
func ReadRecords[T any](ctx context.Context, s *Session, keys []string, translator filereader.RowTranslator, setPos PositionFunc[T]) ([]T, ReadStats, error) {
	perFile := make([][]T, len(keys))
	var rows atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))
	for i, key := range keys {
		g.Go(func() error {
			recs, err := readFile(gctx, s.Input, i, key, translator, setPos)
			if err != nil {
				return err
			}
			perFile[i] = recs
			rows.Add(int64(len(recs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ReadStats{}, err
	}

	out := make([]T, 0, rows.Load())
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	recordRowsRead(ctx, len(keys), rows.Load())
	logctx.FromContext(ctx).Debug("Read records",
		slog.Int("files", len(keys)),
		slog.Int64("rows", rows.Load()))
	return out, ReadStats{Files: len(keys), Rows: rows.Load()}, nil
}

func readFile[T any](ctx context.Context, store objstore.Store, fileIdx int, key string, translator filereader.RowTranslator, setPos PositionFunc[T]) ([]T, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	jr, err := filereader.NewReaderForKey(key, body)
	if err != nil {
		_ = body.Close()
		return nil, err
	}
	var reader filereader.Reader = jr
	if translator != nil {
		reader = filereader.NewTranslatingReader(jr, translator)
	}
	defer func() { _ = reader.Close() }()

	var out []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.GetRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", store.URL(key), err)
		}
		rec, err := filereader.Decode[T](row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", store.URL(key), jr.Line(), err)
		}
		if setPos != nil {
			setPos(&rec, model.Pos{File: fileIdx, Line: jr.Line()})
		}
		out = append(out, rec)
	}
	return out, nil
}
