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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	filesRead metric.Int64Counter
	rowsRead  metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/songlake/internal/engine")

	var err error
	filesRead, err = meter.Int64Counter(
		"songlake.input.files.read",
		metric.WithDescription("Raw input files read"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create files.read counter: %w", err))
	}

	rowsRead, err = meter.Int64Counter(
		"songlake.input.rows.read",
		metric.WithDescription("Raw input records decoded"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.read counter: %w", err))
	}
}

func recordRowsRead(ctx context.Context, files int, rows int64) {
	filesRead.Add(ctx, int64(files))
	rowsRead.Add(ctx, rows)
}
