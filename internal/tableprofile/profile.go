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

// Package tableprofile builds column meta-data for whole tables. A table is
// split into partitions that are scanned in parallel, each with private
// aggregators, and the per-partition stores are merged into one Profile.
package tableprofile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/colmeta/internal/datavalue"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/settings"
)

var (
	// ErrInvalidColumns means a column list has an empty or repeated name.
	ErrInvalidColumns = errors.New("invalid columns")
	// ErrColumnMismatch means two profiles do not describe the same columns.
	ErrColumnMismatch = errors.New("column mismatch")
	// ErrRowWidth means a row does not hold exactly one cell per column.
	ErrRowWidth = errors.New("row width does not match columns")
)

// Persisted field names.
const (
	runIDKey   = "run_id"
	columnsKey = "columns"
	typesKey   = "types"
	storesKey  = "stores"
)

// Column names a table column and its value type.
type Column struct {
	Name string
	Type datavalue.Type
}

// Profile is the meta-data of every column of a table. Stores[i] belongs to
// Columns[i].
type Profile struct {
	RunID   string
	Columns []Column
	Stores  []*metadata.Store
}

func validateColumns(columns []Column) error {
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidColumns, i)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: column %q appears twice", ErrInvalidColumns, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Store returns the meta-data of the named column.
func (p *Profile) Store(name string) (*metadata.Store, bool) {
	i := slices.IndexFunc(p.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return nil, false
	}
	return p.Stores[i], true
}

// Merge combines two profiles of the same table shape column by column.
// The result has no RunID; callers stamp one when they persist it.
func (p *Profile) Merge(other *Profile) (*Profile, error) {
	if len(p.Columns) != len(other.Columns) {
		return nil, fmt.Errorf("%w: %d columns vs %d", ErrColumnMismatch, len(p.Columns), len(other.Columns))
	}
	for i, c := range p.Columns {
		o := other.Columns[i]
		if c.Name != o.Name || c.Type.Name() != o.Type.Name() {
			return nil, fmt.Errorf("%w: column %d is %s %s vs %s %s",
				ErrColumnMismatch, i, c.Name, c.Type.Name(), o.Name, o.Type.Name())
		}
	}
	stores, err := mergeColumns(p.Columns, p.Stores, other.Stores)
	if err != nil {
		return nil, err
	}
	return &Profile{Columns: slices.Clone(p.Columns), Stores: stores}, nil
}

// Equal compares columns and their meta-data. RunID is ignored.
func (p *Profile) Equal(other *Profile) bool {
	if len(p.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range p.Columns {
		o := other.Columns[i]
		if c.Name != o.Name || c.Type.Name() != o.Type.Name() || !p.Stores[i].Equal(other.Stores[i]) {
			return false
		}
	}
	return true
}

func mergeColumns(columns []Column, a, b []*metadata.Store) ([]*metadata.Store, error) {
	out := make([]*metadata.Store, len(a))
	for i := range a {
		merged, err := a[i].Merge(b[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", columns[i].Name, err)
		}
		out[i] = merged
	}
	return out, nil
}

// Save writes the profile into t.
func (p *Profile) Save(t *settings.Tree) {
	names := make([]string, len(p.Columns))
	types := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
		types[i] = c.Type.Name()
	}
	t.SetString(runIDKey, p.RunID)
	t.SetStringArray(columnsKey, names)
	t.SetStringArray(typesKey, types)
	stores := t.AddTree(storesKey)
	for i, c := range p.Columns {
		p.Stores[i].Save(stores.AddTree(c.Name))
	}
}

// LoadProfile reads a profile written by Save. Every column must have a
// store section and no other sections may be present.
func LoadProfile(reg *metadata.Registry, t *settings.Tree) (*Profile, error) {
	runID, err := t.String(runIDKey)
	if err != nil {
		return nil, err
	}
	names, err := t.StringArray(columnsKey)
	if err != nil {
		return nil, err
	}
	types, err := t.StringArray(typesKey)
	if err != nil {
		return nil, err
	}
	if len(names) != len(types) {
		return nil, fmt.Errorf("%w: %d column names but %d types", settings.ErrInvalidSettings, len(names), len(types))
	}
	stores, err := t.Tree(storesKey)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		RunID:   runID,
		Columns: make([]Column, len(names)),
		Stores:  make([]*metadata.Store, len(names)),
	}
	var errs *multierror.Error
	for i, name := range names {
		typ, ok := datavalue.TypeByName(types[i])
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: column %q has unknown type %q",
				settings.ErrInvalidSettings, name, types[i]))
			continue
		}
		p.Columns[i] = Column{Name: name, Type: typ}

		section, err := stores.Tree(name)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("column %q: %w", name, err))
			continue
		}
		s, err := metadata.LoadStore(reg, section)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("column %q: %w", name, err))
			continue
		}
		p.Stores[i] = s
	}
	for _, key := range stores.Keys() {
		if !slices.Contains(names, key) {
			errs = multierror.Append(errs, fmt.Errorf("%w: store for unknown column %q", settings.ErrInvalidSettings, key))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if err := validateColumns(p.Columns); err != nil {
		return nil, fmt.Errorf("%w: %w", settings.ErrInvalidSettings, err)
	}
	return p, nil
}
