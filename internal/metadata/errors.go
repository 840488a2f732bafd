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
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedCell means an accumulator was handed a cell that does not
	// implement its capability. This points at a column type whose
	// capabilities do not match its values.
	ErrUnsupportedCell = errors.New("cell does not support capability")

	// ErrKindMismatch means two summaries or accumulators of different
	// concrete kinds were merged. Stores and aggregators built for the same
	// column type never trigger it.
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrShapeMismatch means two aggregators built for different column
	// types were merged.
	ErrShapeMismatch = errors.New("aggregator shape mismatch")

	// ErrDuplicateCapability means a capability appeared twice where it must
	// be unique.
	ErrDuplicateCapability = errors.New("duplicate capability")

	// ErrUnknownCapability means no accumulator is registered for a capability.
	ErrUnknownCapability = errors.New("unknown capability")
)

// CellError reports a cell that lacks the interface a capability requires.
type CellError struct {
	Capability Capability
	CellType   string
}

// NewCellError builds a CellError describing cell.
func NewCellError(c Capability, cell any) error {
	return &CellError{Capability: c, CellType: fmt.Sprintf("%T", cell)}
}

func (e *CellError) Error() string {
	return fmt.Sprintf("capability %s cannot consume cell of type %s", e.Capability, e.CellType)
}

func (e *CellError) Unwrap() error {
	return ErrUnsupportedCell
}

// KindMismatchError reports a merge between incompatible kinds.
type KindMismatchError struct {
	Want string
	Got  string
}

// NewKindMismatchError describes a merge of a want-kind value with other,
// which is typically a Summary or an Accumulator.
func NewKindMismatchError(want Kind, other any) error {
	got := fmt.Sprintf("%T", other)
	switch o := other.(type) {
	case Summary:
		got = fmt.Sprintf("%s (%T)", o.Kind(), o)
	case Accumulator:
		got = fmt.Sprintf("%s (%T)", o.Kind(), o)
	}
	return &KindMismatchError{Want: string(want), Got: got}
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("cannot merge %s with %s", e.Want, e.Got)
}

func (e *KindMismatchError) Unwrap() error {
	return ErrKindMismatch
}
