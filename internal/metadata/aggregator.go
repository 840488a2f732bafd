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

package metadata

import (
	"fmt"
)

// Aggregator profiles one column. It owns one accumulator per meta-data
// capability of the column's type, in the type's canonical order.
type Aggregator struct {
	accumulators []Accumulator
}

// NewAggregator creates an aggregator with fresh accumulators for the
// capabilities of t that have meta-data in reg.
func NewAggregator(reg *Registry, t ColumnType) *Aggregator {
	caps := reg.Capabilities(t)
	accs := make([]Accumulator, 0, len(caps))
	for _, c := range caps {
		accs = append(accs, reg.byCapability[c].New())
	}
	return &Aggregator{accumulators: accs}
}

// Copy returns an aggregator whose accumulators are independent copies of
// a's, in the same order.
func (a *Aggregator) Copy() *Aggregator {
	accs := make([]Accumulator, len(a.accumulators))
	for i, acc := range a.accumulators {
		accs[i] = acc.Copy()
	}
	return &Aggregator{accumulators: accs}
}

// Capabilities returns the profiled capabilities in order.
func (a *Aggregator) Capabilities() []Capability {
	caps := make([]Capability, len(a.accumulators))
	for i, acc := range a.accumulators {
		caps[i] = acc.Capability()
	}
	return caps
}

// Update feeds cell to every accumulator. On error the aggregator may hold
// partially applied state and should be discarded.
func (a *Aggregator) Update(cell any) error {
	for _, acc := range a.accumulators {
		if err := acc.Update(cell); err != nil {
			return fmt.Errorf("updating %s: %w", acc.Capability(), err)
		}
	}
	return nil
}

// CreateMetaData finalizes every accumulator, in order.
func (a *Aggregator) CreateMetaData() []Summary {
	out := make([]Summary, len(a.accumulators))
	for i, acc := range a.accumulators {
		out[i] = acc.Create()
	}
	return out
}

// Finish finalizes the aggregator into a Store.
func (a *Aggregator) Finish() (*Store, error) {
	return NewStore(a.CreateMetaData()...)
}

// Merge absorbs other, which must have been built for the same column type.
// The shapes are checked before anything is modified.
func (a *Aggregator) Merge(other *Aggregator) error {
	if len(a.accumulators) != len(other.accumulators) {
		return fmt.Errorf("%w: %d accumulators vs %d", ErrShapeMismatch, len(a.accumulators), len(other.accumulators))
	}
	for i, acc := range a.accumulators {
		o := other.accumulators[i]
		if acc.Capability() != o.Capability() || acc.Kind() != o.Kind() {
			return fmt.Errorf("%w: position %d holds %s/%s vs %s/%s", ErrShapeMismatch, i,
				acc.Capability(), acc.Kind(), o.Capability(), o.Kind())
		}
	}
	for i, acc := range a.accumulators {
		if err := acc.Merge(other.accumulators[i]); err != nil {
			return fmt.Errorf("merging %s: %w", acc.Capability(), err)
		}
	}
	return nil
}
