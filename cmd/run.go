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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/songlake/config"
	"github.com/cardinalhq/songlake/internal/engine"
	"github.com/cardinalhq/songlake/internal/objstore"
	"github.com/cardinalhq/songlake/internal/pipeline"
	"github.com/cardinalhq/songlake/internal/transform"
)

const (
	stageAll   = "all"
	stageSongs = "songs"
	stageLogs  = "logs"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build every lake table from the raw inputs",
		Long: `Read song records and event logs from the input location and fully
rewrite the songs, artists, users, time and songplays tables under the
output location. Rerunning on the same input reproduces the same lake.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			doneCtx, doneFx, err := setupTelemetry(servicename)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			cfg, err := loadConfigWithFlags(c)
			if err != nil {
				return err
			}
			stage, err := c.Flags().GetString("stage")
			if err != nil {
				return err
			}
			return runPipeline(doneCtx, cfg, stage)
		},
	}

	addStorageFlags(cmd)
	cmd.Flags().Int("workers", 0, "Parallelism for reads, dedup and writes (0 = GOMAXPROCS)")
	cmd.Flags().Float64("match-tolerance", 0, "Accepted difference in seconds between play length and song duration")
	cmd.Flags().String("stage", stageAll, "Stage to run: all, songs, or logs (logs reuses existing songs/artists tables)")

	rootCmd.AddCommand(cmd)
}

func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "Raw input location (overrides pipeline.input)")
	cmd.Flags().String("output", "", "Lake output location (overrides pipeline.output)")
}

// loadConfigWithFlags applies explicitly set flags on top of config.Load.
func loadConfigWithFlags(c *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	flags := c.Flags()
	if flags.Changed("input") {
		cfg.Pipeline.Input, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		cfg.Pipeline.Output, _ = flags.GetString("output")
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Pipeline.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("match-tolerance") != nil && flags.Changed("match-tolerance") {
		cfg.Pipeline.MatchTolerance, _ = flags.GetFloat64("match-tolerance")
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStores(ctx context.Context, cfg *config.Config) (objstore.Store, objstore.Store, error) {
	opts := cfg.StoreOptions()
	input, err := objstore.Open(ctx, cfg.Pipeline.Input, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input %s: %w", cfg.Pipeline.Input, err)
	}
	output, err := objstore.Open(ctx, cfg.Pipeline.Output, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output %s: %w", cfg.Pipeline.Output, err)
	}
	return input, output, nil
}

func runPipeline(ctx context.Context, cfg *config.Config, stage string) error {
	input, output, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	sess := engine.NewSession(input, output,
		engine.WithWorkers(cfg.Pipeline.Workers),
		engine.WithTmpDir(cfg.Pipeline.TmpDir),
		engine.WithLogger(slog.Default()))

	opts := pipeline.Options{
		SongPattern:    cfg.Pipeline.SongPattern,
		LogPrefix:      cfg.Pipeline.LogPrefix,
		MatchTolerance: cfg.Pipeline.MatchTolerance,
	}

	start := time.Now()
	err = runStage(ctx, sess, opts, stage)
	recordRun(ctx, time.Since(start), err)
	if err != nil {
		slog.Error("Run failed", slog.String("runID", sess.RunID), slog.Any("error", err))
		return err
	}
	return nil
}

func runStage(ctx context.Context, sess *engine.Session, opts pipeline.Options, stage string) error {
	builder := &transform.Builder{
		Workers: sess.Workers,
		Match:   transform.MatchPolicy{Tolerance: opts.MatchTolerance},
	}
	ctx = sess.Context(ctx)

	switch stage {
	case stageAll:
		_, err := pipeline.Run(ctx, sess, opts)
		return err
	case stageSongs:
		pattern := opts.SongPattern
		if pattern == "" {
			pattern = pipeline.DefaultSongPattern
		}
		_, _, err := pipeline.SongStage{Pattern: pattern, Builder: builder}.Run(ctx, sess)
		return err
	case stageLogs:
		prefix := opts.LogPrefix
		if prefix == "" {
			prefix = pipeline.DefaultLogPrefix
		}
		_, err := pipeline.LogStage{Prefix: prefix, Builder: builder}.Run(ctx, sess, pipeline.ExistingArtifact())
		return err
	default:
		return fmt.Errorf("unknown stage %q (want all, songs or logs)", stage)
	}
}
