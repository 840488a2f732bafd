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

// Package nominal profiles the category labels seen in a column whose
// values expose datavalue.NominalDistributionValue.
package nominal

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/settings"
)

// Kind is the persisted identifier of Distribution.
const Kind metadata.Kind = "nominal.distribution.v1"

// ValuesKey is the string array field holding the labels.
const ValuesKey = "values"

// Registration wires the nominal distribution capability into a registry.
func Registration() metadata.Registration {
	return metadata.Registration{
		Capability: datavalue.CapNominalDistribution,
		Kind:       Kind,
		New:        func() metadata.Accumulator { return NewAccumulator() },
		Load:       Load,
	}
}

// Distribution is the finalized set of distinct labels of a column, in the
// order they were first seen.
type Distribution struct {
	labels []string
}

var _ metadata.Summary = (*Distribution)(nil)

// NewDistribution returns a distribution of labels, dropping repeats.
func NewDistribution(labels ...string) *Distribution {
	d := &Distribution{labels: make([]string, 0, len(labels))}
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(labels))
	for _, l := range labels {
		if seen.Add(l) {
			d.labels = append(d.labels, l)
		}
	}
	return d
}

func (d *Distribution) Capability() metadata.Capability { return datavalue.CapNominalDistribution }

func (d *Distribution) Kind() metadata.Kind { return Kind }

// Values returns the labels in first-seen order.
func (d *Distribution) Values() []string { return slices.Clone(d.labels) }

// Len returns the number of distinct labels.
func (d *Distribution) Len() int { return len(d.labels) }

// Contains reports whether label was seen.
func (d *Distribution) Contains(label string) bool { return slices.Contains(d.labels, label) }

// Merge keeps d's labels in order and appends the labels only other has,
// in other's order.
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
	merged := make([]string, 0, len(d.labels)+len(o.labels))
	merged = append(merged, d.labels...)
	merged = append(merged, o.labels...)
	return NewDistribution(merged...), nil
}

// Equal compares label sets; order is not significant.
func (d *Distribution) Equal(other metadata.Summary) bool {
	o, ok := other.(*Distribution)
	if !ok || len(o.labels) != len(d.labels) {
		return false
	}
	return mapset.NewThreadUnsafeSet(d.labels...).Equal(mapset.NewThreadUnsafeSet(o.labels...))
}

func (d *Distribution) Hash() uint64 {
	sorted := slices.Sorted(slices.Values(d.labels))
	h := xxhash.New()
	_, _ = h.WriteString(string(Kind))
	for _, l := range sorted {
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(l)
	}
	return h.Sum64()
}

func (d *Distribution) Save(t *settings.Tree) {
	t.SetStringArray(ValuesKey, d.labels)
}

func (d *Distribution) String() string {
	return fmt.Sprintf("nominal%v", d.labels)
}

// Load reads a Distribution written by Save. Repeated labels collapse to
// their first occurrence.
func Load(t *settings.Tree) (metadata.Summary, error) {
	values, err := t.StringArray(ValuesKey)
	if err != nil {
		return nil, err
	}
	return NewDistribution(values...), nil
}

// Accumulator collects distinct labels in first-seen order.
type Accumulator struct {
	seen   mapset.Set[string]
	labels []string
}

var _ metadata.Accumulator = (*Accumulator)(nil)

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: mapset.NewThreadUnsafeSet[string]()}
}

func (a *Accumulator) Capability() metadata.Capability { return datavalue.CapNominalDistribution }

func (a *Accumulator) Kind() metadata.Kind { return Kind }

func (a *Accumulator) Update(cell any) error {
	if metadata.IsMissing(cell) {
		return nil
	}
	v, ok := cell.(datavalue.NominalDistributionValue)
	if !ok {
		return metadata.NewCellError(datavalue.CapNominalDistribution, cell)
	}
	a.add(v.KnownValues())
	return nil
}

func (a *Accumulator) add(labels []string) {
	for _, l := range labels {
		if a.seen.Add(l) {
			a.labels = append(a.labels, l)
		}
	}
}

func (a *Accumulator) Create() metadata.Summary {
	return &Distribution{labels: slices.Clone(a.labels)}
}

func (a *Accumulator) Copy() metadata.Accumulator {
	return &Accumulator{seen: a.seen.Clone(), labels: slices.Clone(a.labels)}
}

func (a *Accumulator) Merge(other metadata.Accumulator) error {
	o, ok := other.(*Accumulator)
	if !ok {
		return metadata.NewKindMismatchError(Kind, other)
	}
	a.add(o.labels)
	return nil
}
