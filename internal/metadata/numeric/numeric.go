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

// Package numeric summarizes the distribution of a numeric column with a
// DDSketch that also tracks exact count, min, max and sum.
package numeric

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/store"
	"github.com/cespare/xxhash/v2"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/settings"
)

// Kind is the persisted identifier of Distribution.
const Kind metadata.Kind = "numeric.ddsketch.v1"

// SketchKey is the bytes field holding the serialized sketch.
const SketchKey = "sketch"

const relativeAccuracy = 0.01

// probeQuantiles are compared by Equal and folded into Hash.
var probeQuantiles = []float64{0, 0.25, 0.5, 0.75, 0.9, 0.99, 1}

// Registration wires the numeric distribution capability into a registry.
func Registration() metadata.Registration {
	return metadata.Registration{
		Capability: datavalue.CapNumericDistribution,
		Kind:       Kind,
		New:        func() metadata.Accumulator { return NewAccumulator() },
		Load:       Load,
	}
}

func newSketch() *ddsketch.DDSketchWithExactSummaryStatistics {
	sk, err := ddsketch.NewDefaultDDSketchWithExactSummaryStatistics(relativeAccuracy)
	if err != nil {
		panic(fmt.Errorf("numeric: creating sketch: %w", err))
	}
	return sk
}

// Distribution is the finalized, non-empty numeric summary of a column.
type Distribution struct {
	sketch *ddsketch.DDSketchWithExactSummaryStatistics
}

var _ metadata.Summary = (*Distribution)(nil)

func (d *Distribution) Capability() metadata.Capability { return datavalue.CapNumericDistribution }

func (d *Distribution) Kind() metadata.Kind { return Kind }

// Count returns the exact number of values.
func (d *Distribution) Count() uint64 { return uint64(d.sketch.GetCount()) }

// Min returns the exact minimum.
func (d *Distribution) Min() float64 {
	v, _ := d.sketch.GetMinValue()
	return v
}

// Max returns the exact maximum.
func (d *Distribution) Max() float64 {
	v, _ := d.sketch.GetMaxValue()
	return v
}

// Sum returns the sum of all values. It is exact up to floating point
// rounding, which may differ between merge orders.
func (d *Distribution) Sum() float64 { return d.sketch.GetSum() }

// Quantile returns the value at q, within 1% relative error.
func (d *Distribution) Quantile(q float64) (float64, error) {
	return d.sketch.GetValueAtQuantile(q)
}

func (d *Distribution) Merge(other metadata.Summary) (metadata.Summary, error) {
	if metadata.IsEmpty(other) {
		if other != nil && other.Capability() != d.Capability() {
			return nil, metadata.NewKindMismatchError(Kind, other)
		}
		return d, nil
	}
	o, ok := other.(*Distribution)
	if !ok {
		return nil, metadata.NewKindMismatchError(Kind, other)
	}
	merged := d.sketch.Copy()
	if err := merged.MergeWith(o.sketch); err != nil {
		return nil, fmt.Errorf("merging sketches: %w", err)
	}
	return &Distribution{sketch: merged}, nil
}

func (d *Distribution) probe() []float64 {
	values, err := d.sketch.GetValuesAtQuantiles(probeQuantiles)
	if err != nil {
		return nil
	}
	return values
}

// Equal compares count, min, max and a fixed set of quantiles.
func (d *Distribution) Equal(other metadata.Summary) bool {
	o, ok := other.(*Distribution)
	if !ok || d.Count() != o.Count() || d.Min() != o.Min() || d.Max() != o.Max() {
		return false
	}
	a, b := d.probe(), o.probe()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *Distribution) Hash() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(string(Kind))
	buf := binary.LittleEndian.AppendUint64(nil, d.Count())
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(d.Min()))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(d.Max()))
	for _, v := range d.probe() {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

func (d *Distribution) Save(t *settings.Tree) {
	var buf []byte
	d.sketch.Encode(&buf, false)
	t.SetBytes(SketchKey, buf)
}

func (d *Distribution) String() string {
	return fmt.Sprintf("numeric{count=%d min=%g max=%g}", d.Count(), d.Min(), d.Max())
}

// Load reads a Distribution written by Save.
func Load(t *settings.Tree) (metadata.Summary, error) {
	b, err := t.Bytes(SketchKey)
	if err != nil {
		return nil, err
	}
	sk, err := ddsketch.DecodeDDSketchWithExactSummaryStatistics(b, store.DefaultProvider, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid sketch: %v", settings.ErrInvalidSettings, SketchKey, err)
	}
	if sk.IsEmpty() {
		return nil, fmt.Errorf("%w: %q holds an empty sketch", settings.ErrInvalidSettings, SketchKey)
	}
	return &Distribution{sketch: sk}, nil
}

// Accumulator adds numeric cells to a sketch. Non-finite values and values
// whose magnitude exceeds the sketch's indexable range cannot be
// represented and are skipped.
type Accumulator struct {
	sketch *ddsketch.DDSketchWithExactSummaryStatistics
}

var _ metadata.Accumulator = (*Accumulator)(nil)

func NewAccumulator() *Accumulator {
	return &Accumulator{sketch: newSketch()}
}

func (a *Accumulator) Capability() metadata.Capability { return datavalue.CapNumericDistribution }

func (a *Accumulator) Kind() metadata.Kind { return Kind }

func (a *Accumulator) Update(cell any) error {
	if metadata.IsMissing(cell) {
		return nil
	}
	v, ok := cell.(datavalue.DoubleValue)
	if !ok {
		return metadata.NewCellError(datavalue.CapNumericDistribution, cell)
	}
	f := v.Float64()
	if !a.trackable(f) {
		return nil
	}
	if err := a.sketch.Add(f); err != nil {
		return fmt.Errorf("adding %g: %w", f, err)
	}
	return nil
}

func (a *Accumulator) trackable(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return math.Abs(f) <= a.sketch.MaxIndexableValue()
}

// Create returns an Empty summary until a value has been added.
func (a *Accumulator) Create() metadata.Summary {
	if a.sketch.IsEmpty() {
		return metadata.NewEmpty(datavalue.CapNumericDistribution)
	}
	return &Distribution{sketch: a.sketch.Copy()}
}

func (a *Accumulator) Copy() metadata.Accumulator {
	return &Accumulator{sketch: a.sketch.Copy()}
}

func (a *Accumulator) Merge(other metadata.Accumulator) error {
	o, ok := other.(*Accumulator)
	if !ok {
		return metadata.NewKindMismatchError(Kind, other)
	}
	return a.sketch.MergeWith(o.sketch)
}
