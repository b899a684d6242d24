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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	rowsDropped    metric.Int64Counter
	playsUnmatched metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/songlake/internal/pipeline")

	var err error
	rowsDropped, err = meter.Int64Counter(
		"songlake.rows.dropped",
		metric.WithDescription("Input rows left out of a table, by reason"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.dropped counter: %w", err))
	}

	playsUnmatched, err = meter.Int64Counter(
		"songlake.songplays.unmatched",
		metric.WithDescription("Plays that could not be matched to a song"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create songplays.unmatched counter: %w", err))
	}
}

func recordDropped(ctx context.Context, table, reason string, n int) {
	if n == 0 {
		return
	}
	rowsDropped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("reason", reason),
	))
}

func recordUnmatched(ctx context.Context, n int) {
	playsUnmatched.Add(ctx, int64(n))
}
