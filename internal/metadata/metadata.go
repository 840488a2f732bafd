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

// Package metadata computes, merges and persists per-column summary
// meta-data.
//
// A column's declared type lists the capabilities its values support. For
// every capability that has meta-data, a Registry supplies an Accumulator
// which consumes cells one at a time and finalizes into an immutable
// Summary. An Aggregator bundles the accumulators of one column; a Store
// holds the finalized summaries keyed by capability and can be merged with
// stores computed for other partitions of the same column. Merging is
// commutative and associative over summary content, so partial results may
// be reduced in any order.
//
// Nothing in this package is safe for concurrent mutation. Callers give each
// worker its own Aggregator and merge the results afterwards.
package metadata

import (
	"github.com/cardinalhq/colmeta/internal/settings"
)

// Capability names a facet of a value type, such as "nominal_distribution",
// that may carry summary meta-data.
type Capability string

// Kind is the stable, globally unique identifier of a concrete Summary type.
// It names the persisted section a summary is written to.
type Kind string

// ColumnType is the declared type of a column. Capabilities returns the
// type's value capabilities in canonical order; only those with registered
// meta-data are profiled.
type ColumnType interface {
	Name() string
	Capabilities() []Capability
}

// Summary is an immutable, finalized meta-data value for one capability.
//
// Merge returns a new Summary and never modifies either input. Merging with
// an Empty summary of the same capability returns the receiver. Merging
// with a different concrete kind fails with an error wrapping
// ErrKindMismatch.
type Summary interface {
	Capability() Capability
	Kind() Kind
	Merge(other Summary) (Summary, error)
	// Equal compares content. Implementations may ignore ordering that
	// does not survive merges.
	Equal(other Summary) bool
	// Hash must be consistent with Equal.
	Hash() uint64
	// Save writes the payload into t, a section reserved for this summary.
	Save(t *settings.Tree)
}

// Accumulator is the mutable state that produces a Summary.
//
// Update ignores missing cells and returns an error wrapping
// ErrUnsupportedCell for cells lacking the capability's interface. Create
// may be called any number of times and returns a snapshot that shares no
// mutable state with the accumulator. Copy returns an independent deep
// copy. Merge absorbs other, which must be the same concrete kind; other
// should not be used afterwards.
type Accumulator interface {
	Capability() Capability
	Kind() Kind
	Update(cell any) error
	Create() Summary
	Copy() Accumulator
	Merge(other Accumulator) error
}

// LoadFunc reconstructs a finalized Summary from its persisted section.
// Errors must wrap settings.ErrInvalidSettings.
type LoadFunc func(t *settings.Tree) (Summary, error)

// MissingValue is implemented by cells that can represent a missing value.
type MissingValue interface {
	IsMissing() bool
}

// IsMissing reports whether cell is nil or a missing value.
func IsMissing(cell any) bool {
	if cell == nil {
		return true
	}
	if m, ok := cell.(MissingValue); ok {
		return m.IsMissing()
	}
	return false
}
