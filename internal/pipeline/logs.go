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

// LogStats summarizes one log stage run.
type LogStats struct {
	Files         int
	Events        int64
	Plays         int
	Users         int64
	TimeRows      int64
	SongPlays     int64
	Unmatched     int
	MissingUserID int
	NullTS        int
	LookupRows    int
}

// LogStage builds users, time and songplays from the event logs and the
// song dimensions handed over by the song stage.
type LogStage struct {
	// Prefix is the log directory under the input root.
	Prefix  string
	Builder *transform.Builder
}

// Run requires artifact to name completed songs and artists tables.
func (st LogStage) Run(ctx context.Context, sess *engine.Session, artifact DimensionArtifact) (LogStats, error) {
	var stats LogStats
	logger := sess.Logger.With(slog.String("stage", "logs"))
	ctx = logctx.WithLogger(ctx, logger)
	builder := st.Builder
	if builder == nil {
		builder = transform.NewBuilder()
	}

	songs, artists, err := artifact.Load(ctx, sess)
	if err != nil {
		return stats, err
	}
	lookup := transform.BuildSongLookup(songs, artists, builder.Match)
	stats.LookupRows = lookup.Len()

	keys, err := sess.LogFiles(ctx, st.Prefix)
	if err != nil {
		return stats, err
	}
	if len(keys) == 0 {
		return stats, fmt.Errorf("%w: no log files under %s", ErrNoInput, sess.Input.URL(st.Prefix))
	}
	logger.Info("Reading log files", slog.Int("files", len(keys)))

	events, readStats, err := engine.ReadRecords(ctx, sess, keys, transform.CanonicalizeLogs(),
		func(e *model.LogEvent, pos model.Pos) { e.Pos = pos })
	if err != nil {
		return stats, fmt.Errorf("reading log files: %w", err)
	}
	stats.Files = readStats.Files
	stats.Events = readStats.Rows

	plays := transform.FilterPlays(events)
	stats.Plays = len(plays)
	for _, p := range plays {
		if p.UserID == nil {
			stats.MissingUserID++
		}
		if p.TS == nil {
			stats.NullTS++
		}
	}
	recordDropped(ctx, model.TableUsers, "missing_user_id", stats.MissingUserID)
	recordDropped(ctx, model.TableTime, "dropped_null_ts", stats.NullTS)
	if stats.NullTS > 0 {
		logger.Warn("Plays without ts are excluded from the time table", slog.Int("dropped_null_ts", stats.NullTS))
	}

	users := builder.BuildUsers(plays)
	times := builder.BuildTime(plays)
	facts := builder.BuildSongPlays(plays, lookup)
	stats.Unmatched = transform.CountUnmatched(facts)
	recordUnmatched(ctx, stats.Unmatched)

	var usersRes, timeRes, factsRes parquetwriter.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		usersRes, err = engine.WriteTable(gctx, sess, UsersTable, users)
		return err
	})
	g.Go(func() error {
		var err error
		timeRes, err = engine.WriteTable(gctx, sess, TimeTable, times)
		return err
	})
	g.Go(func() error {
		var err error
		factsRes, err = engine.WriteTable(gctx, sess, SongPlaysTable, facts)
		return err
	})
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("writing log tables: %w", err)
	}

	stats.Users = usersRes.Rows
	stats.TimeRows = timeRes.Rows
	stats.SongPlays = factsRes.Rows
	logger.Info("Log stage complete",
		slog.Int64("events", stats.Events),
		slog.Int("plays", stats.Plays),
		slog.Int64("users", stats.Users),
		slog.Int64("time", stats.TimeRows),
		slog.Int64("songplays", stats.SongPlays),
		slog.Int("unmatched", stats.Unmatched),
		slog.Int("lookupRows", stats.LookupRows))
	return stats, nil
}
