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
	"encoding/binary"
	"fmt"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/colmeta/internal/settings"
)

// Store is the finalized meta-data of one column, keyed by capability.
// Empty summaries are never kept. A nil *Store behaves as an empty store.
type Store struct {
	entries map[Capability]Summary
}

// NewStore builds a store from summaries, which must have distinct
// capabilities.
func NewStore(summaries ...Summary) (*Store, error) {
	s := &Store{entries: make(map[Capability]Summary, len(summaries))}
	for _, m := range summaries {
		if IsEmpty(m) {
			continue
		}
		if _, ok := s.entries[m.Capability()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCapability, m.Capability())
		}
		s.entries[m.Capability()] = m
	}
	return s, nil
}

// Len returns the number of summaries.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Get returns the summary for c, if the column was profiled for it.
func (s *Store) Get(c Capability) (Summary, bool) {
	if s == nil {
		return nil, false
	}
	m, ok := s.entries[c]
	return m, ok
}

// GetAs returns the summary for c if present and of concrete type T.
// A summary of another type is reported as absent.
func GetAs[T Summary](s *Store, c Capability) (T, bool) {
	var zero T
	m, ok := s.Get(c)
	if !ok {
		return zero, false
	}
	typed, ok := m.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Capabilities returns the stored capabilities, sorted.
func (s *Store) Capabilities() []Capability {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.entries))
}

// Summaries returns the stored summaries ordered by capability.
func (s *Store) Summaries() []Summary {
	caps := s.Capabilities()
	out := make([]Summary, len(caps))
	for i, c := range caps {
		out[i] = s.entries[c]
	}
	return out
}

// Merge returns a new store holding the union of s and other, merging the
// summaries of capabilities present in both. Neither input is modified.
func (s *Store) Merge(other *Store) (*Store, error) {
	out := &Store{entries: make(map[Capability]Summary, s.Len()+other.Len())}
	if s != nil {
		maps.Copy(out.entries, s.entries)
	}
	for _, c := range other.Capabilities() {
		theirs := other.entries[c]
		mine, ok := out.entries[c]
		if !ok {
			out.entries[c] = theirs
			continue
		}
		merged, err := mine.Merge(theirs)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", c, err)
		}
		if IsEmpty(merged) {
			delete(out.entries, c)
			continue
		}
		out.entries[c] = merged
	}
	return out, nil
}

// Save writes one section per summary into t, named by the summary's kind.
func (s *Store) Save(t *settings.Tree) {
	summaries := s.Summaries()
	slices.SortFunc(summaries, func(a, b Summary) int {
		switch {
		case a.Kind() < b.Kind():
			return -1
		case a.Kind() > b.Kind():
			return 1
		}
		return 0
	})
	for _, m := range summaries {
		m.Save(t.AddTree(string(m.Kind())))
	}
}

// LoadStore reads a store written by Save. Every direct entry of t must be
// a section named by a kind known to reg. Either the whole store loads or
// an error wrapping settings.ErrInvalidSettings is returned.
func LoadStore(reg *Registry, t *settings.Tree) (*Store, error) {
	s := &Store{entries: make(map[Capability]Summary, t.Len())}
	var errs *multierror.Error
	for _, key := range t.Keys() {
		section, err := t.Tree(key)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		m, err := reg.load(Kind(key), section)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, ok := s.entries[m.Capability()]; ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: %w: capability %s loaded twice",
				settings.ErrInvalidSettings, ErrDuplicateCapability, m.Capability()))
			continue
		}
		s.entries[m.Capability()] = m
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("loading column meta-data: %w", err)
	}
	return s, nil
}

// Equal reports whether both stores hold the same capabilities with equal
// summaries.
func (s *Store) Equal(other *Store) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, c := range s.Capabilities() {
		theirs, ok := other.Get(c)
		if !ok || !s.entries[c].Equal(theirs) {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal.
func (s *Store) Hash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, m := range s.Summaries() {
		_, _ = d.WriteString(string(m.Capability()))
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], m.Hash())
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
