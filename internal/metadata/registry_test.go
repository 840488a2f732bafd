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

package metadata_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/metadata/nominal"
	"github.com/cardinalhq/colmeta/internal/settings"
)

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := metadata.NewRegistry(nominal.Registration(), nominal.Registration())
	assert.ErrorIs(t, err, metadata.ErrDuplicateCapability)

	sameKind := nominal.Registration()
	sameKind.Capability = "other_capability"
	_, err = metadata.NewRegistry(nominal.Registration(), sameKind)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(nominal.Kind))
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*metadata.Registration)
		want   string
	}{
		{"empty capability", func(r *metadata.Registration) { r.Capability = "" }, "capability is empty"},
		{"empty kind", func(r *metadata.Registration) { r.Kind = "" }, "kind is empty"},
		{"reserved kind", func(r *metadata.Registration) { r.Kind = metadata.EmptyKind }, "reserved"},
		{"nil constructor", func(r *metadata.Registration) { r.New = nil }, "constructor is nil"},
		{"nil loader", func(r *metadata.Registration) { r.Load = nil }, "loader is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := nominal.Registration()
			tt.mutate(&reg)
			r, err := metadata.NewRegistry(reg)
			assert.Nil(t, r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistryNewAccumulator(t *testing.T) {
	reg, err := metadata.NewRegistry(nominal.Registration())
	require.NoError(t, err)

	acc, err := reg.NewAccumulator(datavalue.CapNominalDistribution)
	require.NoError(t, err)
	assert.Equal(t, nominal.Kind, acc.Kind())

	_, err = reg.NewAccumulator(datavalue.CapDistinctCount)
	assert.ErrorIs(t, err, metadata.ErrUnknownCapability)

	assert.Equal(t, []metadata.Capability{datavalue.CapNominalDistribution}, reg.Capabilities(datavalue.StringType))
}

func TestLoadStoreLoaderFailures(t *testing.T) {
	tests := []struct {
		name string
		load metadata.LoadFunc
		want string
	}{
		{
			name: "nil summary",
			load: func(*settings.Tree) (metadata.Summary, error) { return nil, nil },
			want: "could not be constructed",
		},
		{
			name: "foreign kind",
			load: func(*settings.Tree) (metadata.Summary, error) { return impostor{}, nil },
			want: "impostor.kind",
		},
		{
			name: "loader error",
			load: func(*settings.Tree) (metadata.Summary, error) {
				return nil, errors.Join(settings.ErrInvalidSettings, errors.New("boom"))
			},
			want: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := nominal.Registration()
			r.Load = tt.load
			reg, err := metadata.NewRegistry(r)
			require.NoError(t, err)

			tree := settings.NewTree()
			tree.AddTree(string(nominal.Kind))

			s, err := metadata.LoadStore(reg, tree)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, settings.ErrInvalidSettings)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
