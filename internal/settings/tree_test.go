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

package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Tree {
	t := NewTree()
	t.SetString("name", "color")
	t.SetInt64("rows", 42)
	col := t.AddTree("nominal_distribution/v1")
	col.SetStringArray("values", []string{"red", "blue", "42", "true", ""})
	num := t.AddTree("numeric_distribution/v1")
	num.SetBytes("sketch", []byte{0x00, 0x01, 0xfe, 0xff})
	t.AddTree("empty")
	return t
}

func TestTreeAccessors(t *testing.T) {
	tree := sampleTree()

	assert.Equal(t, []string{"name", "rows", "nominal_distribution/v1", "numeric_distribution/v1", "empty"}, tree.Keys())
	assert.Equal(t, []string{"nominal_distribution/v1", "numeric_distribution/v1", "empty"}, tree.TreeKeys())

	name, err := tree.String("name")
	require.NoError(t, err)
	assert.Equal(t, "color", name)

	rows, err := tree.Int64("rows")
	require.NoError(t, err)
	assert.Equal(t, int64(42), rows)

	sub, err := tree.Tree("nominal_distribution/v1")
	require.NoError(t, err)
	values, err := sub.StringArray("values")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue", "42", "true", ""}, values)
}

func TestTreeErrors(t *testing.T) {
	tree := sampleTree()

	_, err := tree.StringArray("missing")
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "missing")

	_, err = tree.StringArray("name")
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "string array")

	_, err = tree.Tree("rows")
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestTreeCopiesValues(t *testing.T) {
	tree := NewTree()
	in := []string{"a", "b"}
	tree.SetStringArray("v", in)
	in[0] = "mutated"

	out, err := tree.StringArray("v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)

	out[1] = "mutated"
	again, err := tree.StringArray("v")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestTreeReplaceKeepsPosition(t *testing.T) {
	tree := NewTree()
	tree.SetString("a", "1")
	tree.SetString("b", "2")
	tree.SetInt64("a", 3)

	assert.Equal(t, []string{"a", "b"}, tree.Keys())
	v, err := tree.Int64("a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestTreeEqual(t *testing.T) {
	assert.True(t, sampleTree().Equal(sampleTree()))

	other := sampleTree()
	other.SetString("name", "shape")
	assert.False(t, sampleTree().Equal(other))

	reordered := NewTree()
	reordered.SetInt64("rows", 42)
	reordered.SetString("name", "color")
	assert.False(t, sampleTree().Equal(reordered))
}

func TestCBORRoundTrip(t *testing.T) {
	codec, err := NewCBORCodec()
	require.NoError(t, err)

	in := sampleTree()
	data, err := codec.Encode(in)
	require.NoError(t, err)

	out, err := codec.Decode(data)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	again, err := codec.Encode(out)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestCBORDecodeGarbage(t *testing.T) {
	codec, err := NewCBORCodec()
	require.NoError(t, err)

	_, err = codec.Decode([]byte{0xff, 0x00, 0x13})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestYAMLRoundTrip(t *testing.T) {
	in := sampleTree()
	data, err := EncodeYAML(in)
	require.NoError(t, err)

	out, err := DecodeYAML(data)
	require.NoError(t, err)
	assert.True(t, in.Equal(out), "decoded:\n%s", string(data))

	again, err := EncodeYAML(out)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDecodeYAMLRejectsNonMapping(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"top level sequence", "- a\n- b\n"},
		{"nested sequence of maps", "section:\n  values:\n    - a: 1\n"},
		{"bad binary", "sketch: !!binary '***'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestDecodeYAMLEmptyDocument(t *testing.T) {
	tree, err := DecodeYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	codec, err := NewCBORCodec()
	require.NoError(t, err)

	tests := []struct {
		name  string
		build func() *Tree
	}{
		{"string field", func() *Tree {
			tree := NewTree()
			tree.SetString("name", "\xff")
			return tree
		}},
		{"string array in section", func() *Tree {
			tree := NewTree()
			tree.AddTree("stores").AddTree("color").SetStringArray("values", []string{"red", "\xff\x00"})
			return tree
		}},
		{"key", func() *Tree {
			tree := NewTree()
			tree.SetInt64("\xfe", 1)
			return tree
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Encode(tt.build())
			assert.ErrorIs(t, err, ErrInvalidSettings)

			_, err = EncodeYAML(tt.build())
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}

	bin := NewTree()
	bin.SetBytes("sketch", []byte{0xff, 0x00})
	data, err := codec.Encode(bin)
	require.NoError(t, err)
	out, err := codec.Decode(data)
	require.NoError(t, err)
	assert.True(t, bin.Equal(out))
}
