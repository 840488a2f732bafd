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

// Package datavalue defines the cell values and column types profiled by
// the metadata package.
package datavalue

import (
	"github.com/cardinalhq/colmeta/internal/metadata"
)

const (
	CapNominalDistribution metadata.Capability = "nominal_distribution"
	CapDistinctCount       metadata.Capability = "distinct_count"
	CapNumericDistribution metadata.Capability = "numeric_distribution"

	// The following capabilities carry no meta-data.
	CapStringValue  metadata.Capability = "string_value"
	CapDoubleValue  metadata.Capability = "double_value"
	CapLongValue    metadata.Capability = "long_value"
	CapBooleanValue metadata.Capability = "boolean_value"
)

// NominalDistributionValue is a value over a set of category labels.
type NominalDistributionValue interface {
	// KnownValues returns the labels in a stable order.
	KnownValues() []string
}

// HashableValue can be fed to a cardinality sketch.
type HashableValue interface {
	// AppendHashKey appends a byte key identifying the value to dst.
	AppendHashKey(dst []byte) []byte
}

// DoubleValue is a value with a numeric interpretation.
type DoubleValue interface {
	Float64() float64
}
