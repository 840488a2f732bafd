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

	"github.com/spf13/cobra"

	"github.com/cardinalhq/colmeta/config"
	"github.com/cardinalhq/colmeta/internal/metadata/builtin"
	"github.com/cardinalhq/colmeta/internal/tableprofile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile the columns of a parquet file",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			out, err := c.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}
			workers, err := c.Flags().GetInt("workers")
			if err != nil {
				return fmt.Errorf("failed to get workers flag: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if workers > 0 {
				cfg.Profile.Workers = workers
			}

			return withTelemetry("profile", func(ctx context.Context) error {
				return runProfile(ctx, cfg, filename, out)
			})
		},
	}

	cmd.Flags().String("file", "", "Parquet file to profile")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
	cmd.Flags().String("out", "", "File to write the profile to (.yaml or .cbor)")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Errorf("failed to mark out flag as required: %w", err))
	}
	cmd.Flags().Int("workers", 0, "Partitions scanned concurrently (0 uses the configured value)")

	rootCmd.AddCommand(cmd)
}

func runProfile(ctx context.Context, cfg *config.Config, filename, out string) error {
	table, err := tableprofile.ReadParquet(ctx, filename, cfg.Profile)
	if err != nil {
		return err
	}
	for _, name := range table.Skipped {
		slog.Warn("Skipping column with unsupported type", slog.String("column", name))
	}
	slog.Info("Read table",
		slog.String("file", filename),
		slog.Int("rows", table.Rows()),
		slog.Int("partitions", len(table.Partitions)),
		slog.Int("columns", len(table.Columns)))

	p, err := tableprofile.Scan(ctx, builtin.NewRegistry(), table.Columns, table.Partitions, tableprofile.Options{
		Config: cfg.Profile,
		Logger: slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to profile %s: %w", filename, err)
	}

	if err := writeProfile(out, cfg.Output.Format, p); err != nil {
		return err
	}
	slog.Info("Wrote profile", slog.String("file", out), slog.String("runID", p.RunID))
	return nil
}
