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

	"github.com/cardinalhq/colmeta/config"
	"github.com/cardinalhq/colmeta/internal/idgen"
	"github.com/cardinalhq/colmeta/internal/metadata/builtin"
	"github.com/cardinalhq/colmeta/internal/tableprofile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "merge [flags] profile...",
		Short: "Merge saved profiles of the same table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			out, err := c.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return withTelemetry("merge", func(ctx context.Context) error {
				return runMerge(ctx, cfg, args, out)
			})
		},
	}

	cmd.Flags().String("out", "", "File to write the merged profile to (.yaml or .cbor)")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Errorf("failed to mark out flag as required: %w", err))
	}

	rootCmd.AddCommand(cmd)
}

func runMerge(ctx context.Context, cfg *config.Config, inputs []string, out string) error {
	reg := builtin.NewRegistry()

	var merged *tableprofile.Profile
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := readProfile(reg, path)
		if err != nil {
			return err
		}
		if merged == nil {
			merged = p
			continue
		}
		merged, err = merged.Merge(p)
		if err != nil {
			return fmt.Errorf("failed to merge %s: %w", path, err)
		}
	}

	merged.RunID = idgen.NewULIDGenerator().Make(time.Now())
	if err := writeProfile(out, cfg.Output.Format, merged); err != nil {
		return err
	}
	slog.Info("Wrote merged profile",
		slog.String("file", out),
		slog.Int("inputs", len(inputs)),
		slog.String("runID", merged.RunID))
	return nil
}
