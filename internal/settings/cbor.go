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
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wireEntry is the CBOR form of one tree entry. Entries are encoded as an
// array so key order survives the round trip.
type wireEntry struct {
	Key      string      `cbor:"k"`
	Type     string      `cbor:"t"`
	String   string      `cbor:"v,omitempty"`
	Int      int64       `cbor:"i,omitempty"`
	Bytes    []byte      `cbor:"b,omitempty"`
	Strings  []string    `cbor:"s,omitempty"`
	Children []wireEntry `cbor:"c,omitempty"`
}

const (
	wireTree    = "tree"
	wireString  = "string"
	wireInt     = "int"
	wireBytes   = "bytes"
	wireStrings = "strings"
)

// CBORCodec encodes and decodes trees as CBOR.
type CBORCodec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// NewCBORCodec creates a codec with deterministic encoding and strict decoding.
func NewCBORCodec() (*CBORCodec, error) {
	encMode, err := cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		ShortestFloat: cbor.ShortestFloatNone,
		BigIntConvert: cbor.BigIntConvertNone,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	decMode, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IntDec:          cbor.IntDecConvertSigned,
		UTF8:            cbor.UTF8RejectInvalid,
		MaxNestedLevels: 64,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	return &CBORCodec{encMode: encMode, decMode: decMode}, nil
}

// Encode serializes t. Keys and strings must be valid UTF-8, since Decode
// rejects anything else.
func (c *CBORCodec) Encode(t *Tree) ([]byte, error) {
	if err := t.checkText(""); err != nil {
		return nil, err
	}
	return c.encMode.Marshal(toWire(t))
}

// Decode parses data produced by Encode. Malformed input yields an error
// wrapping ErrInvalidSettings.
func (c *CBORCodec) Decode(data []byte) (*Tree, error) {
	var entries []wireEntry
	if err := c.decMode.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: decoding CBOR: %v", ErrInvalidSettings, err)
	}
	return fromWire(entries, "")
}

func toWire(t *Tree) []wireEntry {
	out := make([]wireEntry, 0, t.Len())
	for _, k := range t.keys {
		e := t.entries[k]
		w := wireEntry{Key: k}
		switch e.kind {
		case kindTree:
			w.Type = wireTree
			w.Children = toWire(e.tree)
		case kindString:
			w.Type = wireString
			w.String = e.str
		case kindInt:
			w.Type = wireInt
			w.Int = e.i64
		case kindBytes:
			w.Type = wireBytes
			w.Bytes = e.bytes
		case kindStrings:
			w.Type = wireStrings
			w.Strings = e.strings
		}
		out = append(out, w)
	}
	return out
}

func fromWire(entries []wireEntry, path string) (*Tree, error) {
	t := NewTree()
	for _, w := range entries {
		if t.Has(w.Key) {
			return nil, fmt.Errorf("%w: duplicate key %q in %q", ErrInvalidSettings, w.Key, path)
		}
		switch w.Type {
		case wireTree:
			child, err := fromWire(w.Children, path+"/"+w.Key)
			if err != nil {
				return nil, err
			}
			t.put(w.Key, &entry{kind: kindTree, tree: child})
		case wireString:
			t.SetString(w.Key, w.String)
		case wireInt:
			t.SetInt64(w.Key, w.Int)
		case wireBytes:
			t.SetBytes(w.Key, w.Bytes)
		case wireStrings:
			t.SetStringArray(w.Key, w.Strings)
		default:
			return nil, fmt.Errorf("%w: unknown entry type %q for key %q in %q", ErrInvalidSettings, w.Type, w.Key, path)
		}
	}
	return t, nil
}
