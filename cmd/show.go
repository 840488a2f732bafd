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
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/colmeta/internal/idgen"
	"github.com/cardinalhq/colmeta/internal/metadata/builtin"
	"github.com/cardinalhq/colmeta/internal/tableprofile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the column meta-data of a saved profile",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}

			p, err := readProfile(builtin.NewRegistry(), filename)
			if err != nil {
				return err
			}
			return printProfile(c.OutOrStdout(), p)
		},
	}

	cmd.Flags().String("file", "", "Profile to print")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}

	rootCmd.AddCommand(cmd)
}

func printProfile(out io.Writer, p *tableprofile.Profile) error {
	header := "run " + p.RunID
	if at, err := idgen.RunTime(p.RunID); err == nil {
		header += " (" + at.UTC().Format(time.RFC3339) + ")"
	}
	if _, err := fmt.Fprintln(out, header); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tTYPE\tKIND\tSUMMARY")
	for i, c := range p.Columns {
		summaries := p.Stores[i].Summaries()
		if len(summaries) == 0 {
			fmt.Fprintf(w, "%s\t%s\t-\t-\n", c.Name, c.Type.Name())
			continue
		}
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", c.Name, c.Type.Name(), s.Kind(), s)
		}
	}
	return w.Flush()
}
