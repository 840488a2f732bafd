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

// Package builtin assembles the registry of meta-data kinds shipped with
// colmeta.
package builtin

import (
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/metadata/cardinality"
	"github.com/cardinalhq/colmeta/internal/metadata/nominal"
	"github.com/cardinalhq/colmeta/internal/metadata/numeric"
)

// Registrations returns the built-in kinds. Callers may append their own
// before building a registry.
func Registrations() []metadata.Registration {
	return []metadata.Registration{
		nominal.Registration(),
		cardinality.Registration(),
		numeric.Registration(),
	}
}

// NewRegistry returns a fresh registry of the built-in kinds.
func NewRegistry() *metadata.Registry {
	reg, err := metadata.NewRegistry(Registrations()...)
	if err != nil {
		panic(err) // the built-in registrations are known to be valid
	}
	return reg
}
