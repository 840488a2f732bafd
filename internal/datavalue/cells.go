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
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Missing is the missing value. The zero value is ready to use.
type Missing struct{}

func (Missing) IsMissing() bool { return true }

func (Missing) String() string { return "?" }

// String is a text cell. A string is a degenerate nominal distribution
// whose only known value is itself.
type String string

func (s String) KnownValues() []string { return []string{string(s)} }

func (s String) AppendHashKey(dst []byte) []byte {
	dst = append(dst, 's')
	return append(dst, s...)
}

// Double is a floating point cell.
type Double float64

func (d Double) Float64() float64 { return float64(d) }

func (d Double) AppendHashKey(dst []byte) []byte {
	dst = append(dst, 'd')
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(float64(d)))
}

func (d Double) String() string { return strconv.FormatFloat(float64(d), 'g', -1, 64) }

// Long is an integer cell.
type Long int64

func (l Long) Float64() float64 { return float64(l) }

func (l Long) AppendHashKey(dst []byte) []byte {
	dst = append(dst, 'l')
	return binary.LittleEndian.AppendUint64(dst, uint64(l))
}

func (l Long) String() string { return strconv.FormatInt(int64(l), 10) }

// Bool is a boolean cell.
type Bool bool

func (b Bool) AppendHashKey(dst []byte) []byte {
	if b {
		return append(dst, 'b', 1)
	}
	return append(dst, 'b', 0)
}

// NominalDistribution assigns probabilities to category labels.
type NominalDistribution struct {
	labels        []string
	probabilities []float64
}

var errDistribution = errors.New("invalid nominal distribution")

// NewNominalDistribution builds a distribution. Labels must be distinct and
// probabilities non-negative; probabilities must sum to 1 within 1e-6.
func NewNominalDistribution(labels []string, probabilities []float64) (*NominalDistribution, error) {
	if len(labels) != len(probabilities) {
		return nil, fmt.Errorf("%w: %d labels but %d probabilities", errDistribution, len(labels), len(probabilities))
	}
	sum := 0.0
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if _, ok := seen[l]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q", errDistribution, l)
		}
		seen[l] = struct{}{}
		p := probabilities[i]
		if p < 0 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: probability %v for %q", errDistribution, p, l)
		}
		sum += p
	}
	if len(labels) > 0 && math.Abs(sum-1) > 1e-6 {
		return nil, fmt.Errorf("%w: probabilities sum to %v", errDistribution, sum)
	}
	return &NominalDistribution{labels: slices.Clone(labels), probabilities: slices.Clone(probabilities)}, nil
}

// Uniform spreads probability evenly over labels. Duplicate labels are
// collapsed.
func Uniform(labels ...string) *NominalDistribution {
	var distinct []string
	for _, l := range labels {
		if !slices.Contains(distinct, l) {
			distinct = append(distinct, l)
		}
	}
	probs := make([]float64, len(distinct))
	for i := range probs {
		probs[i] = 1 / float64(len(distinct))
	}
	return &NominalDistribution{labels: distinct, probabilities: probs}
}

func (n *NominalDistribution) KnownValues() []string { return slices.Clone(n.labels) }

// Probability returns the probability of label, or 0 if it is unknown.
func (n *NominalDistribution) Probability(label string) float64 {
	if i := slices.Index(n.labels, label); i >= 0 {
		return n.probabilities[i]
	}
	return 0
}

// MostLikely returns the label with the highest probability, preferring the
// earliest on ties.
func (n *NominalDistribution) MostLikely() (string, bool) {
	if len(n.labels) == 0 {
		return "", false
	}
	best := 0
	for i, p := range n.probabilities {
		if p > n.probabilities[best] {
			best = i
		}
	}
	return n.labels[best], true
}
