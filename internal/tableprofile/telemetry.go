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

package tableprofile

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("github.com/cardinalhq/colmeta/internal/tableprofile")

var (
	rowsScanned       metric.Int64Counter
	partitionsScanned metric.Int64Counter
	storesMerged      metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/colmeta/internal/tableprofile")

	var err error

	rowsScanned, err = meter.Int64Counter(
		"colmeta.profile.rows_scanned",
		metric.WithDescription("Number of rows fed into column aggregators"),
	)
	if err != nil {
		log.Fatalf("failed to create profile.rows_scanned counter: %v", err)
	}

	partitionsScanned, err = meter.Int64Counter(
		"colmeta.profile.partitions_scanned",
		metric.WithDescription("Number of partitions scanned to completion"),
	)
	if err != nil {
		log.Fatalf("failed to create profile.partitions_scanned counter: %v", err)
	}

	storesMerged, err = meter.Int64Counter(
		"colmeta.profile.stores_merged",
		metric.WithDescription("Number of pairwise column store merges"),
	)
	if err != nil {
		log.Fatalf("failed to create profile.stores_merged counter: %v", err)
	}
}

func recordRows(ctx context.Context, n int) {
	rowsScanned.Add(ctx, int64(n))
}

func recordPartition(ctx context.Context) {
	partitionsScanned.Add(ctx, 1)
}

func recordMerges(ctx context.Context, n int) {
	storesMerged.Add(ctx, int64(n))
}
