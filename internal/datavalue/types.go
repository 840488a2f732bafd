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

package datavalue

import (
	"slices"

	"github.com/cardinalhq/colmeta/internal/metadata"
)

// Type is a column type with its capabilities in canonical order.
type Type struct {
	name         string
	capabilities []metadata.Capability
}

var _ metadata.ColumnType = Type{}

func (t Type) Name() string { return t.name }

func (t Type) Capabilities() []metadata.Capability { return slices.Clone(t.capabilities) }

func (t Type) String() string { return t.name }

var (
	StringType = Type{name: "string", capabilities: []metadata.Capability{
		CapStringValue, CapNominalDistribution, CapDistinctCount,
	}}
	DoubleType = Type{name: "double", capabilities: []metadata.Capability{
		CapDoubleValue, CapNumericDistribution, CapDistinctCount,
	}}
	LongType = Type{name: "long", capabilities: []metadata.Capability{
		CapLongValue, CapNumericDistribution, CapDistinctCount,
	}}
	BooleanType = Type{name: "boolean", capabilities: []metadata.Capability{
		CapBooleanValue,
	}}
	NominalDistributionType = Type{name: "nominal_distribution", capabilities: []metadata.Capability{
		CapNominalDistribution,
	}}
)

var typesByName = map[string]Type{
	StringType.name:              StringType,
	DoubleType.name:              DoubleType,
	LongType.name:                LongType,
	BooleanType.name:             BooleanType,
	NominalDistributionType.name: NominalDistributionType,
}

// TypeByName resolves a type name as returned by Type.Name.
func TypeByName(name string) (Type, bool) {
	t, ok := typesByName[name]
	return t, ok
}
