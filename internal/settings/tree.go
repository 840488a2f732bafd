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

// Package settings provides an ordered hierarchical key-value tree used to
// persist column meta-data, along with CBOR and YAML encodings of it.
//
// A Tree holds named entries in insertion order. Each entry is either a
// nested Tree (a section) or a primitive field: a string, an int64, a byte
// slice or a string array. Readers get a typed accessor per field kind and
// receive an error wrapping ErrInvalidSettings when a key is absent or holds
// a different kind.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"
)

// ErrInvalidSettings is wrapped by every error caused by settings that are
// missing, malformed or of an unexpected type.
var ErrInvalidSettings = errors.New("invalid settings")

type entryKind uint8

const (
	kindTree entryKind = iota + 1
	kindString
	kindInt
	kindBytes
	kindStrings
)

func (k entryKind) String() string {
	switch k {
	case kindTree:
		return "section"
	case kindString:
		return "string"
	case kindInt:
		return "int"
	case kindBytes:
		return "bytes"
	case kindStrings:
		return "string array"
	default:
		return "unknown"
	}
}

type entry struct {
	kind    entryKind
	tree    *Tree
	str     string
	i64     int64
	bytes   []byte
	strings []string
}

// Tree is an ordered collection of named sections and fields.
// A Tree is not safe for concurrent mutation.
type Tree struct {
	keys    []string
	entries map[string]*entry
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{entries: make(map[string]*entry)}
}

// Len returns the number of direct entries.
func (t *Tree) Len() int {
	return len(t.keys)
}

// Keys returns the names of all direct entries in insertion order.
func (t *Tree) Keys() []string {
	return slices.Clone(t.keys)
}

// TreeKeys returns the names of the direct entries that are sections.
func (t *Tree) TreeKeys() []string {
	keys := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		if t.entries[k].kind == kindTree {
			keys = append(keys, k)
		}
	}
	return keys
}

// Has reports whether key names a direct entry.
func (t *Tree) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// IsTree reports whether key names a direct section.
func (t *Tree) IsTree(key string) bool {
	e, ok := t.entries[key]
	return ok && e.kind == kindTree
}

// put replaces an existing entry in place or appends a new one.
func (t *Tree) put(key string, e *entry) {
	if t.entries == nil {
		t.entries = make(map[string]*entry)
	}
	if _, ok := t.entries[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = e
}

func (t *Tree) get(key string, want entryKind) (*entry, error) {
	e, ok := t.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %q not found", ErrInvalidSettings, key)
	}
	if e.kind != want {
		return nil, fmt.Errorf("%w: key %q holds a %s, expected a %s", ErrInvalidSettings, key, e.kind, want)
	}
	return e, nil
}

// AddTree adds a new empty section named key and returns it for writing.
// An existing entry with the same name is replaced.
func (t *Tree) AddTree(key string) *Tree {
	child := NewTree()
	t.put(key, &entry{kind: kindTree, tree: child})
	return child
}

// Tree returns the section named key.
func (t *Tree) Tree(key string) (*Tree, error) {
	e, err := t.get(key, kindTree)
	if err != nil {
		return nil, err
	}
	return e.tree, nil
}

// SetString stores a string field.
func (t *Tree) SetString(key, value string) {
	t.put(key, &entry{kind: kindString, str: value})
}

// String returns the string field named key.
func (t *Tree) String(key string) (string, error) {
	e, err := t.get(key, kindString)
	if err != nil {
		return "", err
	}
	return e.str, nil
}

// SetInt64 stores an integer field.
func (t *Tree) SetInt64(key string, value int64) {
	t.put(key, &entry{kind: kindInt, i64: value})
}

// Int64 returns the integer field named key.
func (t *Tree) Int64(key string) (int64, error) {
	e, err := t.get(key, kindInt)
	if err != nil {
		return 0, err
	}
	return e.i64, nil
}

// SetBytes stores a copy of value.
func (t *Tree) SetBytes(key string, value []byte) {
	t.put(key, &entry{kind: kindBytes, bytes: cloneBytes(value)})
}

// Bytes returns a copy of the byte field named key.
func (t *Tree) Bytes(key string) ([]byte, error) {
	e, err := t.get(key, kindBytes)
	if err != nil {
		return nil, err
	}
	return cloneBytes(e.bytes), nil
}

// SetStringArray stores a copy of values.
func (t *Tree) SetStringArray(key string, values []string) {
	t.put(key, &entry{kind: kindStrings, strings: cloneStrings(values)})
}

// StringArray returns a copy of the string array field named key.
func (t *Tree) StringArray(key string) ([]string, error) {
	e, err := t.get(key, kindStrings)
	if err != nil {
		return nil, err
	}
	return cloneStrings(e.strings), nil
}

// Equal reports whether both trees hold the same entries in the same order.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !slices.Equal(t.keys, other.keys) {
		return false
	}
	for _, k := range t.keys {
		a, b := t.entries[k], other.entries[k]
		if a.kind != b.kind {
			return false
		}
		switch a.kind {
		case kindTree:
			if !a.tree.Equal(b.tree) {
				return false
			}
		case kindString:
			if a.str != b.str {
				return false
			}
		case kindInt:
			if a.i64 != b.i64 {
				return false
			}
		case kindBytes:
			if !slices.Equal(a.bytes, b.bytes) {
				return false
			}
		case kindStrings:
			if !slices.Equal(a.strings, b.strings) {
				return false
			}
		}
	}
	return true
}

// checkText reports the first key or string value that is not valid UTF-8.
// Both encodings store them as text, so such a tree cannot round trip.
func (t *Tree) checkText(path string) error {
	for _, k := range t.keys {
		child := path + "/" + k
		if !utf8.ValidString(k) {
			return fmt.Errorf("%w: key %q is not valid UTF-8", ErrInvalidSettings, child)
		}
		e := t.entries[k]
		switch e.kind {
		case kindTree:
			if err := e.tree.checkText(child); err != nil {
				return err
			}
		case kindString:
			if !utf8.ValidString(e.str) {
				return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidSettings, child)
			}
		case kindStrings:
			for i, v := range e.strings {
				if !utf8.ValidString(v) {
					return fmt.Errorf("%w: %q element %d is not valid UTF-8", ErrInvalidSettings, child, i)
				}
			}
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return slices.Clone(b)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
