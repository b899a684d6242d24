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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/songlake/internal/engine"
	"github.com/cardinalhq/songlake/internal/logctx"
	"github.com/cardinalhq/songlake/internal/model"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
	"github.com/cardinalhq/songlake/internal/transform"
)

// SongStats summarizes one song stage run.
type SongStats struct {
	Files           int
	Records         int64
	Songs           int64
	Artists         int64
	MissingSongID   int
	MissingArtistID int
}

// SongStage builds the songs and artists dimensions from song records.
type SongStage struct {
	// Pattern selects song files under the input root.
	Pattern string
	Builder *transform.Builder
}

// Run reads the song files, writes songs and artists, and returns the
// artifact the log stage needs.
func (st SongStage) Run(ctx context.Context, sess *engine.Session) (DimensionArtifact, SongStats, error) {
	var stats SongStats
	logger := sess.Logger.With(slog.String("stage", "songs"))
	ctx = logctx.WithLogger(ctx, logger)
	builder := st.Builder
	if builder == nil {
		builder = transform.NewBuilder()
	}

	keys, err := sess.SongFiles(ctx, st.Pattern)
	if err != nil {
		return DimensionArtifact{}, stats, err
	}
	if len(keys) == 0 {
		return DimensionArtifact{}, stats, fmt.Errorf("%w: no song files match %s", ErrNoInput, sess.Input.URL(st.Pattern))
	}
	logger.Info("Reading song files", slog.Int("files", len(keys)))

	records, readStats, err := engine.ReadRecords(ctx, sess, keys, nil,
		func(r *model.SongRecord, pos model.Pos) { r.Pos = pos })
	if err != nil {
		return DimensionArtifact{}, stats, fmt.Errorf("reading song files: %w", err)
	}
	stats.Files = readStats.Files
	stats.Records = readStats.Rows

	for _, r := range records {
		if r.SongID == nil {
			stats.MissingSongID++
		}
		if r.ArtistID == nil {
			stats.MissingArtistID++
		}
	}
	recordDropped(ctx, model.TableSongs, "missing_song_id", stats.MissingSongID)
	recordDropped(ctx, model.TableArtists, "missing_artist_id", stats.MissingArtistID)

	songs := builder.BuildSongs(records)
	artists := builder.BuildArtists(records)

	var songsRes, artistsRes parquetwriter.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		songsRes, err = engine.WriteTable(gctx, sess, SongsTable, songs)
		return err
	})
	g.Go(func() error {
		var err error
		artistsRes, err = engine.WriteTable(gctx, sess, ArtistsTable, artists)
		return err
	})
	if err := g.Wait(); err != nil {
		return DimensionArtifact{}, stats, fmt.Errorf("writing song dimensions: %w", err)
	}

	stats.Songs = songsRes.Rows
	stats.Artists = artistsRes.Rows
	logger.Info("Song stage complete",
		slog.Int64("records", stats.Records),
		slog.Int64("songs", stats.Songs),
		slog.Int64("artists", stats.Artists),
		slog.Int("missingSongID", stats.MissingSongID),
		slog.Int("missingArtistID", stats.MissingArtistID))

	return DimensionArtifact{
		RunID:   sess.RunID,
		Songs:   refOf(songsRes),
		Artists: refOf(artistsRes),
	}, stats, nil
}
