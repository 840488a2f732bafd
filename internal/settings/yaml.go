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
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// The YAML form maps sections to mappings, string arrays to sequences,
// byte fields to !!binary scalars, integers to !!int scalars and strings
// to !!str scalars.

// EncodeYAML serializes t as a YAML document.
func EncodeYAML(t *Tree) ([]byte, error) {
	if err := t.checkText(""); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(treeToNode(t)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeYAML parses a document produced by EncodeYAML.
func DecodeYAML(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding YAML: %v", ErrInvalidSettings, err)
	}
	if doc.Kind == 0 {
		return NewTree(), nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%w: expected a single YAML document", ErrInvalidSettings)
	}
	return nodeToTree(doc.Content[0], "")
}

func treeToNode(t *Tree) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range t.keys {
		e := t.entries[k]
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		var val *yaml.Node
		switch e.kind {
		case kindTree:
			val = treeToNode(e.tree)
		case kindString:
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.str}
		case kindInt:
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(e.i64, 10)}
		case kindBytes:
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString(e.bytes)}
		case kindStrings:
			val = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
			for _, s := range e.strings {
				val.Content = append(val.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s})
			}
		}
		n.Content = append(n.Content, key, val)
	}
	return n
}

func nodeToTree(n *yaml.Node, path string) (*Tree, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %q is not a mapping", ErrInvalidSettings, path)
	}
	t := NewTree()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		val := n.Content[i+1]
		child := path + "/" + key
		if t.Has(key) {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidSettings, child)
		}
		switch val.Kind {
		case yaml.MappingNode:
			sub, err := nodeToTree(val, child)
			if err != nil {
				return nil, err
			}
			t.put(key, &entry{kind: kindTree, tree: sub})
		case yaml.SequenceNode:
			values := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("%w: %q must contain only scalars", ErrInvalidSettings, child)
				}
				values = append(values, item.Value)
			}
			t.SetStringArray(key, values)
		case yaml.ScalarNode:
			if err := putScalar(t, key, val, child); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unsupported YAML node at %q", ErrInvalidSettings, child)
		}
	}
	return t, nil
}

func putScalar(t *Tree, key string, val *yaml.Node, path string) error {
	switch val.ShortTag() {
	case "!!binary":
		clean := strings.Join(strings.Fields(val.Value), "")
		b, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return fmt.Errorf("%w: %q is not valid base64: %v", ErrInvalidSettings, path, err)
		}
		t.SetBytes(key, b)
	case "!!int":
		i, err := strconv.ParseInt(val.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a valid integer: %v", ErrInvalidSettings, path, err)
		}
		t.SetInt64(key, i)
	default:
		t.SetString(key, val.Value)
	}
	return nil
}
