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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/colmeta/config"
	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/metadata/builtin"
	"github.com/cardinalhq/colmeta/internal/metadata/nominal"
	"github.com/cardinalhq/colmeta/internal/tableprofile"
)

func writeParquet(t *testing.T, dir, name string, services []string) string {
	t.Helper()
	schema := parquet.NewSchema("cmd-test", parquet.Group{
		"service": parquet.Optional(parquet.String()),
		"bytes":   parquet.Optional(parquet.Int(64)),
	})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	pw := parquet.NewGenericWriter[map[string]any](f, schema)
	for i, s := range services {
		_, err := pw.Write([]map[string]any{{"service": s, "bytes": int64(i * 100)}})
		require.NoError(t, err)
	}
	require.NoError(t, pw.Close())
	require.NoError(t, f.Close())
	return path
}

func testConfig() *config.Config {
	return &config.Config{
		Profile: tableprofile.Config{Workers: 2, BatchSize: 2, PartitionRows: 3},
		Output:  config.OutputConfig{Format: config.FormatCBOR},
	}
}

func TestProfileMergeShow(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cfg := testConfig()
	reg := builtin.NewRegistry()

	first := writeParquet(t, dir, "a.parquet", []string{"api", "db", "api", "web"})
	second := writeParquet(t, dir, "b.parquet", []string{"queue", "db"})

	require.NoError(t, runProfile(ctx, cfg, first, filepath.Join(dir, "a.yaml")))
	require.NoError(t, runProfile(ctx, cfg, second, filepath.Join(dir, "b.out")))

	a, err := readProfile(reg, filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	b, err := readProfile(reg, filepath.Join(dir, "b.out"))
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)

	merged := filepath.Join(dir, "merged.yaml")
	require.NoError(t, runMerge(ctx, cfg, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.out")}, merged))

	m, err := readProfile(reg, merged)
	require.NoError(t, err)
	want, err := a.Merge(b)
	require.NoError(t, err)
	assert.True(t, want.Equal(m))

	services, ok := m.Store("service")
	require.True(t, ok)
	d, ok := metadata.GetAs[*nominal.Distribution](services, datavalue.CapNominalDistribution)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"api", "db", "web", "queue"}, d.Values())

	var out bytes.Buffer
	require.NoError(t, printProfile(&out, m))
	text := out.String()
	assert.Contains(t, text, "run "+m.RunID)
	assert.Contains(t, text, "COLUMN")
	assert.Contains(t, text, string(nominal.Kind))
	assert.Contains(t, text, "service")
}

func TestRunMergeRejectsDifferentTables(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cfg := testConfig()

	path := writeParquet(t, dir, "a.parquet", []string{"api"})
	require.NoError(t, runProfile(ctx, cfg, path, filepath.Join(dir, "a.cbor")))

	other := &tableprofile.Profile{
		RunID:   "x",
		Columns: []tableprofile.Column{{Name: "other", Type: datavalue.BooleanType}},
		Stores:  []*metadata.Store{nil},
	}
	require.NoError(t, writeProfile(filepath.Join(dir, "b.cbor"), config.FormatCBOR, other))

	err := runMerge(ctx, cfg, []string{filepath.Join(dir, "a.cbor"), filepath.Join(dir, "b.cbor")}, filepath.Join(dir, "m.cbor"))
	assert.ErrorIs(t, err, tableprofile.ErrColumnMismatch)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, config.FormatYAML, formatFor("x.YML", config.FormatCBOR))
	assert.Equal(t, config.FormatCBOR, formatFor("x.cbor", config.FormatYAML))
	assert.Equal(t, config.FormatCBOR, formatFor("x.bin", config.FormatCBOR))
}

func TestReadProfileErrors(t *testing.T) {
	dir := t.TempDir()
	reg := builtin.NewRegistry()

	_, err := readProfile(reg, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.dat")
	require.NoError(t, os.WriteFile(bad, []byte("- not\n- a profile\n"), 0o644))
	_, err = readProfile(reg, bad)
	assert.Error(t, err)
}
