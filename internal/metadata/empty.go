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

	"github.com/cespare/xxhash/v2"

	"github.com/cardinalhq/colmeta/internal/settings"
)

// EmptyKind identifies the Empty summary. It is never persisted.
const EmptyKind Kind = "empty"

// Empty is the merge identity: a summary carrying no information.
type Empty struct {
	capability Capability
}

var _ Summary = (*Empty)(nil)

// NewEmpty returns the empty summary for capability c.
func NewEmpty(c Capability) *Empty {
	return &Empty{capability: c}
}

// IsEmpty reports whether s is nil or an Empty summary.
func IsEmpty(s Summary) bool {
	if s == nil {
		return true
	}
	_, ok := s.(*Empty)
	return ok
}

func (e *Empty) Capability() Capability { return e.capability }

func (e *Empty) Kind() Kind { return EmptyKind }

// Merge returns e when other is also empty and other otherwise.
func (e *Empty) Merge(other Summary) (Summary, error) {
	if other == nil {
		return e, nil
	}
	if other.Capability() != e.capability {
		return nil, fmt.Errorf("%w: capability %s", NewKindMismatchError(e.Kind(), other), e.capability)
	}
	if IsEmpty(other) {
		return e, nil
	}
	return other.Merge(e)
}

func (e *Empty) Equal(other Summary) bool {
	o, ok := other.(*Empty)
	return ok && o.capability == e.capability
}

func (e *Empty) Hash() uint64 {
	return xxhash.Sum64String(string(EmptyKind) + ":" + string(e.capability))
}

// Save writes nothing.
func (e *Empty) Save(*settings.Tree) {}

func (e *Empty) String() string {
	return fmt.Sprintf("empty(%s)", e.capability)
}
