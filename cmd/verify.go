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
	"io"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/songlake/internal/duckdbx"
	"github.com/cardinalhq/songlake/internal/model"
)

// lakeCheck counts violations of one property; zero means it holds.
type lakeCheck struct {
	name   string
	tables []string
	sql    string
}

var lakeChecks = []lakeCheck{
	{"songs.song_id is unique and non-null", []string{model.TableSongs},
		`SELECT count(*) - count(DISTINCT song_id) FROM songs`},
	{"artists.artist_id is unique and non-null", []string{model.TableArtists},
		`SELECT count(*) - count(DISTINCT artist_id) FROM artists`},
	{"users.user_id is unique and non-null", []string{model.TableUsers},
		`SELECT count(*) - count(DISTINCT user_id) FROM users`},
	{"time.ts is unique", []string{model.TableTime},
		`SELECT count(*) - count(DISTINCT ts) FROM "time"`},
	{"time.start_time is non-null", []string{model.TableTime},
		`SELECT count(*) FROM "time" WHERE start_time IS NULL`},
	{"songplays.songplay_id is unique", []string{model.TableSongPlays},
		`SELECT count(*) - count(DISTINCT songplay_id) FROM songplays`},
	{"songplays song_id and artist_id are null together", []string{model.TableSongPlays},
		`SELECT count(*) FROM songplays WHERE (song_id IS NULL) <> (artist_id IS NULL)`},
	{"matched songplays reference a known song", []string{model.TableSongPlays, model.TableSongs},
		`SELECT count(*) FROM songplays p LEFT JOIN songs s ON p.song_id = s.song_id
		 WHERE p.song_id IS NOT NULL AND s.song_id IS NULL`},
	{"timed songplays have a time row", []string{model.TableSongPlays, model.TableTime},
		`SELECT count(*) FROM songplays p LEFT JOIN "time" t ON p."timestamp" = t.start_time
		 WHERE p."timestamp" IS NOT NULL AND t.start_time IS NULL`},
}

type checkResult struct {
	name       string
	violations int64
	err        error
}

func (r checkResult) ok() bool { return r.err == nil && r.violations == 0 }

func init() {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check key uniqueness and null-safety of a written lake",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := handleSignals(c.Context())
			defer cancel()

			cfg, err := loadConfigWithFlags(c)
			if err != nil {
				return err
			}
			lake, err := openLake(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = lake.Close() }()

			results := verifyLake(ctx, lake)
			if failed := printResults(os.Stdout, results); failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
	addStorageFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func verifyLake(ctx context.Context, lake *duckdbx.Lake) []checkResult {
	present := mapset.NewThreadUnsafeSet(lake.Tables...)

	results := make([]checkResult, 0, len(lakeChecks))
	for _, chk := range lakeChecks {
		res := checkResult{name: chk.name}
		if !present.Contains(chk.tables...) {
			res.err = fmt.Errorf("table missing or incomplete")
			results = append(results, res)
			continue
		}
		res.violations, res.err = lake.QueryInt(ctx, chk.sql)
		results = append(results, res)
	}
	return results
}

func printResults(w io.Writer, results []checkResult) int {
	failed := 0
	for _, r := range results {
		if r.ok() {
			fmt.Fprintf(w, "%s  %s\n", color.GreenString("PASS"), r.name)
			continue
		}
		failed++
		if r.err != nil {
			fmt.Fprintf(w, "%s  %s: %v\n", color.RedString("FAIL"), r.name, r.err)
		} else {
			fmt.Fprintf(w, "%s  %s: %s violations\n", color.RedString("FAIL"), r.name, color.YellowString("%d", r.violations))
		}
	}
	return failed
}
