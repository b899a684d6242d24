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
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/songlake/config"
	"github.com/cardinalhq/songlake/internal/duckdbx"
	"github.com/cardinalhq/songlake/internal/model"
	"github.com/cardinalhq/songlake/internal/objstore"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run SQL over the lake tables",
		Long: `Run a DuckDB SQL statement with the lake tables exposed as the views
songs, artists, users, time and songplays. Results print as a markdown table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
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

			res, err := lake.Query(ctx, args[0])
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			return renderResult(os.Stdout, res)
		},
	}
	addStorageFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func openLake(ctx context.Context, cfg *config.Config) (*duckdbx.Lake, error) {
	store, err := objstore.Open(ctx, cfg.Pipeline.Output, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening lake %s: %w", cfg.Pipeline.Output, err)
	}
	return duckdbx.OpenLake(ctx, store, model.AllTables,
		duckdbx.WithLocalMemoryLimitMB(cfg.DuckDB.MemoryLimit),
		duckdbx.WithLocalTempDirectory(cfg.DuckDB.GetTempDirectory()),
		duckdbx.WithLocalThreads(cfg.DuckDB.Threads))
}

func renderResult(w io.Writer, res *duckdbx.Result) error {
	if len(res.Rows) == 0 {
		_, err := fmt.Fprintf(w, "_Columns: %s_\n\n_No rows_\n", strings.Join(res.Columns, ", "))
		return err
	}

	alignment := make([]tw.Align, len(res.Columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(res.Columns)
	for _, row := range res.Rows {
		table.Append(row)
	}
	table.Render()
	_, err := fmt.Fprintf(w, "\n_%d rows_\n", len(res.Rows))
	return err
}
