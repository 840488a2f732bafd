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

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardinalhq/colmeta/config"
	"github.com/cardinalhq/colmeta/internal/metadata"
	"github.com/cardinalhq/colmeta/internal/settings"
	"github.com/cardinalhq/colmeta/internal/tableprofile"
)

// formatFor picks the output format implied by the file extension, falling
// back to the configured format.
func formatFor(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.FormatYAML
	case ".cbor":
		return config.FormatCBOR
	}
	return fallback
}

func encodeTree(t *settings.Tree, format string) ([]byte, error) {
	switch format {
	case config.FormatYAML:
		return settings.EncodeYAML(t)
	case config.FormatCBOR:
		codec, err := settings.NewCBORCodec()
		if err != nil {
			return nil, err
		}
		return codec.Encode(t)
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// decodeTree decodes data in the format implied by path. Files without a
// known extension are tried as CBOR first and then as YAML.
func decodeTree(path string, data []byte) (*settings.Tree, error) {
	codec, err := settings.NewCBORCodec()
	if err != nil {
		return nil, err
	}
	switch formatFor(path, "") {
	case config.FormatYAML:
		return settings.DecodeYAML(data)
	case config.FormatCBOR:
		return codec.Decode(data)
	}
	t, cborErr := codec.Decode(data)
	if cborErr == nil {
		return t, nil
	}
	t, yamlErr := settings.DecodeYAML(data)
	if yamlErr == nil {
		return t, nil
	}
	return nil, errors.Join(cborErr, yamlErr)
}

func writeProfile(path, format string, p *tableprofile.Profile) error {
	t := settings.NewTree()
	p.Save(t)
	data, err := encodeTree(t, formatFor(path, format))
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readProfile(reg *metadata.Registry, path string) (*tableprofile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := decodeTree(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	p, err := tableprofile.LoadProfile(reg, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
