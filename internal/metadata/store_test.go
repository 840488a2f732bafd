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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/metadata/builtin"
	"github.com/cardinalhq/colmeta/internal/metadata/cardinality"
	"github.com/cardinalhq/colmeta/internal/metadata/nominal"
	"github.com/cardinalhq/colmeta/internal/metadata/numeric"
	"github.com/cardinalhq/colmeta/internal/settings"
)

func stringStore(t *testing.T, values ...string) *metadata.Store {
	t.Helper()
	agg := metadata.NewAggregator(builtin.NewRegistry(), datavalue.StringType)
	for _, v := range values {
		require.NoError(t, agg.Update(datavalue.String(v)))
	}
	s, err := agg.Finish()
	require.NoError(t, err)
	return s
}

func doubleStore(t *testing.T, values ...float64) *metadata.Store {
	t.Helper()
	agg := metadata.NewAggregator(builtin.NewRegistry(), datavalue.DoubleType)
	for _, v := range values {
		require.NoError(t, agg.Update(datavalue.Double(v)))
	}
	s, err := agg.Finish()
	require.NoError(t, err)
	return s
}

func mustMerge(t *testing.T, a, b *metadata.Store) *metadata.Store {
	t.Helper()
	out, err := a.Merge(b)
	require.NoError(t, err)
	return out
}

func TestStoreGet(t *testing.T) {
	s := stringStore(t, "red", "blue")

	m, ok := s.Get(datavalue.CapNominalDistribution)
	require.True(t, ok)
	assert.Equal(t, nominal.Kind, m.Kind())

	_, ok = s.Get(datavalue.CapNumericDistribution)
	assert.False(t, ok)

	_, ok = metadata.GetAs[*numeric.Distribution](s, datavalue.CapNominalDistribution)
	assert.False(t, ok, "a summary of another concrete type is absent")

	est, ok := metadata.GetAs[*cardinality.Estimate](s, datavalue.CapDistinctCount)
	require.True(t, ok)
	assert.Equal(t, uint64(2), est.Count())

	var nilStore *metadata.Store
	_, ok = nilStore.Get(datavalue.CapNominalDistribution)
	assert.False(t, ok)
}

func TestNewStoreRejectsDuplicates(t *testing.T) {
	_, err := metadata.NewStore(nominal.NewDistribution("a"), nominal.NewDistribution("b"))
	assert.ErrorIs(t, err, metadata.ErrDuplicateCapability)
}

func TestNewStoreDropsEmpty(t *testing.T) {
	s, err := metadata.NewStore(metadata.NewEmpty(datavalue.CapNumericDistribution), nominal.NewDistribution("a"))
	require.NoError(t, err)
	assert.Equal(t, []metadata.Capability{datavalue.CapNominalDistribution}, s.Capabilities())
}

func TestStoreMergeIdentity(t *testing.T) {
	empty, err := metadata.NewStore()
	require.NoError(t, err)

	for name, s := range map[string]*metadata.Store{
		"string": stringStore(t, "a", "b"),
		"double": doubleStore(t, 1, 2, 3),
		"empty":  empty,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, mustMerge(t, s, empty).Equal(s))
			assert.True(t, mustMerge(t, empty, s).Equal(s))
			assert.True(t, mustMerge(t, s, nil).Equal(s))
		})
	}
}

func TestStoreMergeCommutativeAndAssociative(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c *metadata.Store
	}{
		{
			name: "string",
			a:    stringStore(t, "red", "blue", "red"),
			b:    stringStore(t, "green", "blue"),
			c:    stringStore(t, "yellow", "red", "purple"),
		},
		{
			name: "double",
			a:    doubleStore(t, 1, 2, 3, 2.5),
			b:    doubleStore(t, -10, 0, 100),
			c:    doubleStore(t, 7, 7, 7, 0.001),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := mustMerge(t, tt.a, tt.b)
			ba := mustMerge(t, tt.b, tt.a)
			assert.True(t, ab.Equal(ba))
			assert.Equal(t, ab.Hash(), ba.Hash())

			left := mustMerge(t, ab, tt.c)
			right := mustMerge(t, tt.a, mustMerge(t, tt.b, tt.c))
			assert.True(t, left.Equal(right))
			assert.Equal(t, left.Hash(), right.Hash())
		})
	}
}

func TestStoreMergeDoesNotModifyInputs(t *testing.T) {
	a := stringStore(t, "a")
	b := stringStore(t, "b")
	aBefore := stringStore(t, "a")
	bBefore := stringStore(t, "b")

	merged := mustMerge(t, a, b)
	assert.Equal(t, 2, merged.Len())
	assert.True(t, a.Equal(aBefore))
	assert.True(t, b.Equal(bBefore))
}

func TestStoreMergeUnion(t *testing.T) {
	nom, err := metadata.NewStore(nominal.NewDistribution("a"))
	require.NoError(t, err)
	merged := mustMerge(t, nom, doubleStore(t, 4))

	assert.Equal(t, []metadata.Capability{
		datavalue.CapDistinctCount, datavalue.CapNominalDistribution, datavalue.CapNumericDistribution,
	}, merged.Capabilities())
}

func TestStoreMergeKindMismatch(t *testing.T) {
	a, err := metadata.NewStore(nominal.NewDistribution("a"))
	require.NoError(t, err)
	b, err := metadata.NewStore(impostor{})
	require.NoError(t, err)

	_, err = a.Merge(b)
	assert.ErrorIs(t, err, metadata.ErrKindMismatch)
	assert.Contains(t, err.Error(), string(nominal.Kind))
	assert.Contains(t, err.Error(), "impostor")
}

func TestStoreConcreteScenario(t *testing.T) {
	reg := builtin.NewRegistry()
	merged := mustMerge(t, stringStore(t, "red", "blue", "red"), stringStore(t, "green", "blue"))

	d, ok := metadata.GetAs[*nominal.Distribution](merged, datavalue.CapNominalDistribution)
	require.True(t, ok)
	assert.Equal(t, []string{"red", "blue", "green"}, d.Values())

	tree := settings.NewTree()
	merged.Save(tree)
	loaded, err := metadata.LoadStore(reg, tree)
	require.NoError(t, err)

	ld, ok := metadata.GetAs[*nominal.Distribution](loaded, datavalue.CapNominalDistribution)
	require.True(t, ok)
	assert.Equal(t, []string{"red", "blue", "green"}, ld.Values())
	assert.True(t, merged.Equal(loaded))
}

func TestStoreRoundTrip(t *testing.T) {
	reg := builtin.NewRegistry()
	codec, err := settings.NewCBORCodec()
	require.NoError(t, err)

	stores := map[string]*metadata.Store{
		"string": stringStore(t, "x", "y", "z", "x"),
		"double": doubleStore(t, 0.5, 10, -3, 1e9),
		"mixed":  mustMerge(t, stringStore(t, "q"), doubleStore(t, 1)),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			tree := settings.NewTree()
			s.Save(tree)

			loaded, err := metadata.LoadStore(reg, tree)
			require.NoError(t, err)
			assert.True(t, s.Equal(loaded))
			assert.Equal(t, s.Hash(), loaded.Hash())

			again := settings.NewTree()
			loaded.Save(again)
			assert.True(t, tree.Equal(again), "re-saving a loaded store must reproduce the tree")

			data, err := codec.Encode(tree)
			require.NoError(t, err)
			decoded, err := codec.Decode(data)
			require.NoError(t, err)
			fromCBOR, err := metadata.LoadStore(reg, decoded)
			require.NoError(t, err)
			assert.True(t, s.Equal(fromCBOR))

			text, err := settings.EncodeYAML(tree)
			require.NoError(t, err)
			parsed, err := settings.DecodeYAML(text)
			require.NoError(t, err)
			fromYAML, err := metadata.LoadStore(reg, parsed)
			require.NoError(t, err)
			assert.True(t, s.Equal(fromYAML))
		})
	}
}

func TestStoreSaveLayout(t *testing.T) {
	tree := settings.NewTree()
	mustMerge(t, stringStore(t, "a"), doubleStore(t, 1)).Save(tree)

	assert.Equal(t, []string{string(cardinality.Kind), string(nominal.Kind), string(numeric.Kind)}, tree.Keys())
	sub, err := tree.Tree(string(nominal.Kind))
	require.NoError(t, err)
	values, err := sub.StringArray(nominal.ValuesKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, values)
}

func TestLoadStoreFailures(t *testing.T) {
	reg := builtin.NewRegistry()

	tests := []struct {
		name  string
		build func(*settings.Tree)
		want  string
	}{
		{
			name: "unknown kind",
			build: func(tr *settings.Tree) {
				tr.AddTree("com.example.Unknown").SetStringArray("values", []string{"a"})
			},
			want: "com.example.Unknown",
		},
		{
			name: "missing field",
			build: func(tr *settings.Tree) {
				tr.AddTree(string(nominal.Kind))
			},
			want: nominal.ValuesKey,
		},
		{
			name: "wrong field type",
			build: func(tr *settings.Tree) {
				tr.AddTree(string(nominal.Kind)).SetString(nominal.ValuesKey, "red")
			},
			want: nominal.ValuesKey,
		},
		{
			name: "corrupt sketch",
			build: func(tr *settings.Tree) {
				tr.AddTree(string(cardinality.Kind)).SetBytes(cardinality.SketchKey, []byte{1, 2})
			},
			want: string(cardinality.Kind),
		},
		{
			name: "field instead of section",
			build: func(tr *settings.Tree) {
				tr.SetString(string(nominal.Kind), "red")
			},
			want: string(nominal.Kind),
		},
		{
			name: "valid section followed by unknown kind",
			build: func(tr *settings.Tree) {
				tr.AddTree(string(nominal.Kind)).SetStringArray(nominal.ValuesKey, []string{"a"})
				tr.AddTree("bogus")
			},
			want: "bogus",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := settings.NewTree()
			tt.build(tree)

			s, err := metadata.LoadStore(reg, tree)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.ErrorIs(t, err, settings.ErrInvalidSettings)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadStoreEmptyTree(t *testing.T) {
	s, err := metadata.LoadStore(builtin.NewRegistry(), settings.NewTree())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStoreEqualAndHash(t *testing.T) {
	a := stringStore(t, "a", "b")
	b := stringStore(t, "b", "a")
	c := stringStore(t, "a", "c")

	assert.True(t, a.Equal(b), "label order is not significant")
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(doubleStore(t, 1)))

	var nilStore *metadata.Store
	empty, err := metadata.NewStore()
	require.NoError(t, err)
	assert.True(t, empty.Equal(nilStore))
	assert.Equal(t, empty.Hash(), nilStore.Hash())
}
