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

// Package pipeline runs the two stages that turn raw song records and event
// logs into the lake: the song stage writes songs and artists, then the log
// stage reads them back to build users, time and songplays.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cardinalhq/songlake/internal/engine"
	"github.com/cardinalhq/songlake/internal/transform"
)

// ErrNoInput is returned when a stage finds no input files.
var ErrNoInput = errors.New("no input files")

const (
	DefaultSongPattern = "songs/A/*/*/*.json"
	DefaultLogPrefix   = "logs"
)

// Options selects inputs and tunes the builders.
type Options struct {
	SongPattern    string
	LogPrefix      string
	MatchTolerance float64
}

// Report is the outcome of a full run.
type Report struct {
	RunID   string
	Songs   SongStats
	Logs    LogStats
	Elapsed time.Duration
}

func (o Options) withDefaults() Options {
	if o.SongPattern == "" {
		o.SongPattern = DefaultSongPattern
	}
	if o.LogPrefix == "" {
		o.LogPrefix = DefaultLogPrefix
	}
	return o
}

// Run executes the song stage and then the log stage. Every table is fully
// overwritten, so rerunning on the same input reproduces the same lake.
func Run(ctx context.Context, sess *engine.Session, opts Options) (Report, error) {
	opts = opts.withDefaults()
	start := time.Now()
	ctx = sess.Context(ctx)

	builder := &transform.Builder{
		Workers: sess.Workers,
		Match:   transform.MatchPolicy{Tolerance: opts.MatchTolerance},
	}

	report := Report{RunID: sess.RunID}
	sess.Logger.Info("Starting run",
		slog.String("input", sess.Input.URL("")),
		slog.String("output", sess.Output.URL("")),
		slog.Int("workers", sess.Workers))

	artifact, songStats, err := SongStage{Pattern: opts.SongPattern, Builder: builder}.Run(ctx, sess)
	report.Songs = songStats
	if err != nil {
		return report, err
	}

	logStats, err := LogStage{Prefix: opts.LogPrefix, Builder: builder}.Run(ctx, sess, artifact)
	report.Logs = logStats
	if err != nil {
		return report, err
	}

	report.Elapsed = time.Since(start)
	sess.Logger.Info("Run complete", slog.Duration("elapsed", report.Elapsed))
	return report, nil
}
