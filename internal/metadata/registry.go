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
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/colmeta/internal/settings"
)

// Registration binds a capability to the accumulator that profiles it and to
// the persisted kind of the summaries that accumulator creates.
type Registration struct {
	Capability Capability
	Kind       Kind
	New        func() Accumulator
	Load       LoadFunc
}

func (r Registration) validate() error {
	var errs *multierror.Error
	if r.Capability == "" {
		errs = multierror.Append(errs, errors.New("capability is empty"))
	}
	if r.Kind == "" {
		errs = multierror.Append(errs, errors.New("kind is empty"))
	}
	if r.Kind == EmptyKind {
		errs = multierror.Append(errs, fmt.Errorf("kind %q is reserved", EmptyKind))
	}
	if r.New == nil {
		errs = multierror.Append(errs, errors.New("accumulator constructor is nil"))
	}
	if r.Load == nil {
		errs = multierror.Append(errs, errors.New("loader is nil"))
	}
	return errs.ErrorOrNil()
}

// Registry resolves capabilities to accumulators and persisted kinds to
// loaders. A Registry is built once and then only read, so it may be shared
// between goroutines.
type Registry struct {
	byKind       map[Kind]Registration
	byCapability map[Capability]Registration
}

// NewRegistry builds a registry from regs. Every invalid or conflicting
// registration is reported.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := &Registry{
		byKind:       make(map[Kind]Registration, len(regs)),
		byCapability: make(map[Capability]Registration, len(regs)),
	}
	var errs *multierror.Error
	for _, reg := range regs {
		if err := r.Register(reg); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds reg. A capability or kind may be registered only once.
func (r *Registry) Register(reg Registration) error {
	if err := reg.validate(); err != nil {
		return fmt.Errorf("invalid registration for %q: %w", reg.Kind, err)
	}
	if _, ok := r.byCapability[reg.Capability]; ok {
		return fmt.Errorf("%w: %s already registered", ErrDuplicateCapability, reg.Capability)
	}
	if existing, ok := r.byKind[reg.Kind]; ok {
		return fmt.Errorf("kind %s already registered for capability %s", reg.Kind, existing.Capability)
	}
	r.byKind[reg.Kind] = reg
	r.byCapability[reg.Capability] = reg
	return nil
}

// HasMetaData reports whether capability c is profiled.
func (r *Registry) HasMetaData(c Capability) bool {
	_, ok := r.byCapability[c]
	return ok
}

// Capabilities returns the capabilities of t that have meta-data, in the
// type's canonical order.
func (r *Registry) Capabilities(t ColumnType) []Capability {
	var out []Capability
	for _, c := range t.Capabilities() {
		if r.HasMetaData(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// NewAccumulator returns a fresh accumulator for c.
func (r *Registry) NewAccumulator(c Capability) (Accumulator, error) {
	reg, ok := r.byCapability[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, c)
	}
	return reg.New(), nil
}

// Kinds returns every registered kind, sorted.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// load resolves kind and reconstructs its summary from t.
func (r *Registry) load(kind Kind, t *settings.Tree) (Summary, error) {
	reg, ok := r.byKind[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown meta-data kind %q", settings.ErrInvalidSettings, kind)
	}
	s, err := reg.Load(t)
	if err != nil {
		return nil, fmt.Errorf("loading meta-data kind %q: %w", kind, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: meta-data kind %q could not be constructed", settings.ErrInvalidSettings, kind)
	}
	if s.Kind() != kind || s.Capability() != reg.Capability {
		return nil, fmt.Errorf("%w: meta-data kind %q constructed %s for capability %s",
			settings.ErrInvalidSettings, kind, s.Kind(), s.Capability())
	}
	return s, nil
}
