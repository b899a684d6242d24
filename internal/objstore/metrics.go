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

package objstore

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	putCount metric.Int64Counter
	putBytes metric.Int64Counter
	getCount metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/songlake/internal/objstore")

	var err error
	putCount, err = meter.Int64Counter(
		"songlake.objstore.put.count",
		metric.WithDescription("Number of objects written"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create put.count counter: %w", err))
	}

	putBytes, err = meter.Int64Counter(
		"songlake.objstore.put.bytes",
		metric.WithDescription("Bytes written to object storage"),
		metric.WithUnit("By"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create put.bytes counter: %w", err))
	}

	getCount, err = meter.Int64Counter(
		"songlake.objstore.get.count",
		metric.WithDescription("Number of objects read"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create get.count counter: %w", err))
	}
}

func recordPut(ctx context.Context, scheme string, n int64) {
	attrs := metric.WithAttributes(attribute.String("scheme", scheme))
	putCount.Add(ctx, 1, attrs)
	if n >= 0 {
		putBytes.Add(ctx, n, attrs)
	}
}

func recordGet(ctx context.Context, scheme string) {
	getCount.Add(ctx, 1, metric.WithAttributes(attribute.String("scheme", scheme)))
}
