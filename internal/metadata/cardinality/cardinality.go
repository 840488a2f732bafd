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

// Package cardinality estimates the number of distinct values in a column
// with a HyperLogLog sketch.
package cardinality

import (
	"encoding/binary"
	"fmt"

	"github.com/axiomhq/hyperloglog"
	"github.com/cespare/xxhash/v2"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/settings"
)

// Kind is the persisted identifier of Estimate.
const Kind metadata.Kind = "cardinality.hll.v1"

// SketchKey is the bytes field holding the serialized sketch.
const SketchKey = "sketch"

// Registration wires the distinct count capability into a registry.
func Registration() metadata.Registration {
	return metadata.Registration{
		Capability: datavalue.CapDistinctCount,
		Kind:       Kind,
		New:        func() metadata.Accumulator { return NewAccumulator() },
		Load:       Load,
	}
}

// The dense representation is used throughout so that merging is a plain
// register-wise max and does not depend on merge order.
func newSketch() *hyperloglog.Sketch {
	return hyperloglog.NewNoSparse()
}

// Estimate is the finalized distinct count sketch of a column.
type Estimate struct {
	sketch *hyperloglog.Sketch
}

var _ metadata.Summary = (*Estimate)(nil)

func (e *Estimate) Capability() metadata.Capability { return datavalue.CapDistinctCount }

func (e *Estimate) Kind() metadata.Kind { return Kind }

// Count returns the estimated number of distinct values.
func (e *Estimate) Count() uint64 { return e.sketch.Estimate() }

func (e *Estimate) Merge(other metadata.Summary) (metadata.Summary, error) {
	if metadata.IsEmpty(other) {
		if other != nil && other.Capability() != e.Capability() {
			return nil, metadata.NewKindMismatchError(Kind, other)
		}
		return e, nil
	}
	o, ok := other.(*Estimate)
	if !ok {
		return nil, metadata.NewKindMismatchError(Kind, other)
	}
	merged := e.sketch.Clone()
	if err := merged.Merge(o.sketch); err != nil {
		return nil, fmt.Errorf("merging sketches: %w", err)
	}
	return &Estimate{sketch: merged}, nil
}

// Equal compares estimates, not sketch registers: two sketches that
// report the same distinct count are equal. Hash follows the same rule.
func (e *Estimate) Equal(other metadata.Summary) bool {
	o, ok := other.(*Estimate)
	return ok && o.Count() == e.Count()
}

func (e *Estimate) Hash() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], e.Count())
	d := xxhash.New()
	_, _ = d.WriteString(string(Kind))
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

func (e *Estimate) Save(t *settings.Tree) {
	// Marshalling a sketch only fails for unsupported precisions, which
	// newSketch never produces.
	b, err := e.sketch.MarshalBinary()
	if err != nil {
		panic(fmt.Errorf("cardinality: marshalling sketch: %w", err))
	}
	t.SetBytes(SketchKey, b)
}

func (e *Estimate) String() string {
	return fmt.Sprintf("distinct≈%d", e.Count())
}

// Load reads an Estimate written by Save.
func Load(t *settings.Tree) (metadata.Summary, error) {
	b, err := t.Bytes(SketchKey)
	if err != nil {
		return nil, err
	}
	sk := newSketch()
	if err := sk.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid sketch: %v", settings.ErrInvalidSettings, SketchKey, err)
	}
	return &Estimate{sketch: sk}, nil
}

// Accumulator feeds hashable cells into a sketch.
type Accumulator struct {
	sketch  *hyperloglog.Sketch
	scratch []byte
}

var _ metadata.Accumulator = (*Accumulator)(nil)

func NewAccumulator() *Accumulator {
	return &Accumulator{sketch: newSketch()}
}

func (a *Accumulator) Capability() metadata.Capability { return datavalue.CapDistinctCount }

func (a *Accumulator) Kind() metadata.Kind { return Kind }

func (a *Accumulator) Update(cell any) error {
	if metadata.IsMissing(cell) {
		return nil
	}
	v, ok := cell.(datavalue.HashableValue)
	if !ok {
		return metadata.NewCellError(datavalue.CapDistinctCount, cell)
	}
	a.scratch = v.AppendHashKey(a.scratch[:0])
	a.sketch.Insert(a.scratch)
	return nil
}

func (a *Accumulator) Create() metadata.Summary {
	return &Estimate{sketch: a.sketch.Clone()}
}

func (a *Accumulator) Copy() metadata.Accumulator {
	return &Accumulator{sketch: a.sketch.Clone()}
}

func (a *Accumulator) Merge(other metadata.Accumulator) error {
	o, ok := other.(*Accumulator)
	if !ok {
		return metadata.NewKindMismatchError(Kind, other)
	}
	return a.sketch.Merge(o.sketch)
}
