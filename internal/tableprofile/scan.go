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
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/colmeta/internal/idgen"
	"github.com/cardinalhq/colmeta/internal/metadata"
)

// Partition is a contiguous run of rows. Each row holds one cell per
// column, in column order.
type Partition [][]any

// Options tune a Scan. The zero value is usable.
type Options struct {
	Config
	Logger *slog.Logger
	IDs    idgen.IDGenerator
}

// Scan profiles a table. Partitions are scanned concurrently, bounded by
// Workers, each into its own aggregators; the resulting stores are then
// merged pairwise until one store per column remains. The first error
// cancels the remaining work.
func Scan(ctx context.Context, reg *metadata.Registry, columns []Column, partitions []Partition, opts Options) (_ *Profile, err error) {
	ctx, span := tracer.Start(ctx, "colmeta.profile.scan", trace.WithAttributes(
		attribute.Int("columns", len(columns)),
		attribute.Int("partitions", len(partitions)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
		}
		span.End()
	}()

	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	cfg := opts.Config.normalized()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ids := opts.IDs
	if ids == nil {
		ids = idgen.NewULIDGenerator()
	}
	start := time.Now()

	perPartition := make([][]*metadata.Store, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, part := range partitions {
		g.Go(func() error {
			stores, err := scanPartition(gctx, reg, columns, part, cfg.BatchSize)
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			perPartition[i] = stores
			logger.Debug("Scanned partition", slog.Int("partition", i), slog.Int("rows", len(part)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var stores []*metadata.Store
	if len(perPartition) == 0 {
		empty, err := finishAll(newAggregators(reg, columns))
		if err != nil {
			return nil, err
		}
		stores = empty
	} else {
		reduced, err := reduce(ctx, columns, perPartition, cfg.Workers)
		if err != nil {
			return nil, err
		}
		stores = reduced
	}

	p := &Profile{
		RunID:   ids.Make(start),
		Columns: slices.Clone(columns),
		Stores:  stores,
	}
	span.SetAttributes(attribute.String("run_id", p.RunID))
	logger.Info("Profiled table",
		slog.String("runID", p.RunID),
		slog.Int("columns", len(columns)),
		slog.Int("partitions", len(partitions)),
		slog.Duration("elapsed", time.Since(start)))
	return p, nil
}

func newAggregators(reg *metadata.Registry, columns []Column) []*metadata.Aggregator {
	aggs := make([]*metadata.Aggregator, len(columns))
	for i, c := range columns {
		aggs[i] = metadata.NewAggregator(reg, c.Type)
	}
	return aggs
}

func finishAll(aggs []*metadata.Aggregator) ([]*metadata.Store, error) {
	stores := make([]*metadata.Store, len(aggs))
	for i, agg := range aggs {
		s, err := agg.Finish()
		if err != nil {
			return nil, err
		}
		stores[i] = s
	}
	return stores, nil
}

func scanPartition(ctx context.Context, reg *metadata.Registry, columns []Column, part Partition, batchSize int) ([]*metadata.Store, error) {
	aggs := newAggregators(reg, columns)
	for lo := 0; lo < len(part); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+batchSize, len(part))
		for r := lo; r < hi; r++ {
			row := part[r]
			if len(row) != len(columns) {
				return nil, fmt.Errorf("%w: row %d has %d cells for %d columns", ErrRowWidth, r, len(row), len(columns))
			}
			for c, cell := range row {
				if err := aggs[c].Update(cell); err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", columns[c].Name, r, err)
				}
			}
		}
		recordRows(ctx, hi-lo)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stores, err := finishAll(aggs)
	if err != nil {
		return nil, err
	}
	recordPartition(ctx)
	return stores, nil
}

// reduce merges per-partition stores level by level, pairing neighbours so
// that each level halves the number of store sets. An odd set out is
// carried to the next level unchanged.
func reduce(ctx context.Context, columns []Column, level [][]*metadata.Store, workers int) ([]*metadata.Store, error) {
	for len(level) > 1 {
		next := make([][]*metadata.Store, (len(level)+1)/2)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := 0; i+1 < len(level); i += 2 {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				merged, err := mergeColumns(columns, level[i], level[i+1])
				if err != nil {
					return err
				}
				next[i/2] = merged
				return nil
			})
		}
		if len(level)%2 == 1 {
			next[len(next)-1] = level[len(level)-1]
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		recordMerges(ctx, len(level)/2*len(columns))
		level = next
	}
	return level[0], nil
}
