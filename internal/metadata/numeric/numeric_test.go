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

package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/settings"
)

func build(t *testing.T, values ...float64) *Accumulator {
	t.Helper()
	a := NewAccumulator()
	for _, v := range values {
		require.NoError(t, a.Update(datavalue.Double(v)))
	}
	return a
}

func TestEmptyUntilFirstValue(t *testing.T) {
	a := NewAccumulator()
	require.NoError(t, a.Update(nil))
	require.NoError(t, a.Update(datavalue.Double(math.NaN())))
	require.NoError(t, a.Update(datavalue.Double(math.Inf(1))))

	s := a.Create()
	assert.True(t, metadata.IsEmpty(s))
	assert.Equal(t, datavalue.CapNumericDistribution, s.Capability())
}

func TestUpdateSkipsUntrackableMagnitudes(t *testing.T) {
	a := NewAccumulator()
	for _, v := range []float64{math.MaxFloat64, -math.MaxFloat64, 1.77e308} {
		require.NoError(t, a.Update(datavalue.Double(v)), "%g", v)
	}
	assert.True(t, metadata.IsEmpty(a.Create()))

	require.NoError(t, a.Update(datavalue.Double(42)))
	require.NoError(t, a.Update(datavalue.Double(math.MaxFloat64)))
	d := a.Create().(*Distribution)
	assert.Equal(t, uint64(1), d.Count())
	assert.Equal(t, 42.0, d.Max())

	limit := a.sketch.MaxIndexableValue()
	require.NoError(t, a.Update(datavalue.Double(limit)))
	assert.Equal(t, limit, a.Create().(*Distribution).Max())
}

func TestDistributionStatistics(t *testing.T) {
	a := NewAccumulator()
	for i := 1; i <= 100; i++ {
		require.NoError(t, a.Update(datavalue.Long(int64(i))))
	}
	d := a.Create().(*Distribution)

	assert.Equal(t, uint64(100), d.Count())
	assert.Equal(t, 1.0, d.Min())
	assert.Equal(t, 100.0, d.Max())
	assert.Equal(t, 5050.0, d.Sum())

	median, err := d.Quantile(0.5)
	require.NoError(t, err)
	assert.InEpsilon(t, 50.0, median, 0.03)
}

func TestMergeIsOrderIndependent(t *testing.T) {
	a := build(t, 1, 2, 3, -4.5).Create()
	b := build(t, 100, 0, 0.25).Create()

	ab, err := a.Merge(b)
	require.NoError(t, err)
	ba, err := b.Merge(a)
	require.NoError(t, err)

	assert.True(t, ab.Equal(ba))
	assert.Equal(t, ab.Hash(), ba.Hash())
	assert.True(t, ab.Equal(build(t, 1, 2, 3, -4.5, 100, 0, 0.25).Create()))

	d := ab.(*Distribution)
	assert.Equal(t, uint64(7), d.Count())
	assert.Equal(t, -4.5, d.Min())
	assert.Equal(t, 100.0, d.Max())
}

func TestMergeWithEmpty(t *testing.T) {
	d := build(t, 3).Create()

	out, err := d.Merge(NewAccumulator().Create())
	require.NoError(t, err)
	assert.Same(t, d, out)

	out, err = NewAccumulator().Create().Merge(d)
	require.NoError(t, err)
	assert.True(t, out.Equal(d))
}

func TestAccumulatorMergeAndCopy(t *testing.T) {
	a := build(t, 1, 2)
	c := a.Copy()
	require.NoError(t, c.Update(datavalue.Double(9)))

	assert.Equal(t, uint64(2), a.Create().(*Distribution).Count())
	require.NoError(t, a.Merge(c))
	assert.Equal(t, uint64(5), a.Create().(*Distribution).Count())
	assert.Equal(t, 9.0, a.Create().(*Distribution).Max())
}

func TestUpdateRejectsForeignCell(t *testing.T) {
	err := NewAccumulator().Update(datavalue.String("1.5"))
	assert.ErrorIs(t, err, metadata.ErrUnsupportedCell)
}

func TestEqualDetectsDifferences(t *testing.T) {
	a := build(t, 1, 2, 3).Create()
	assert.False(t, a.Equal(build(t, 1, 2, 4).Create()))
	assert.False(t, a.Equal(build(t, 1, 2).Create()))
	assert.False(t, a.Equal(metadata.NewEmpty(datavalue.CapNumericDistribution)))
}

func TestSaveLoad(t *testing.T) {
	d := build(t, 0.1, 7, 7, 1e6, -3).Create()
	tree := settings.NewTree()
	d.Save(tree)

	loaded, err := Load(tree)
	require.NoError(t, err)
	assert.True(t, d.Equal(loaded))
	assert.Equal(t, d.(*Distribution).Sum(), loaded.(*Distribution).Sum())

	empty := settings.NewTree()
	empty.SetBytes(SketchKey, nil)
	_, err = Load(empty)
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)
}
