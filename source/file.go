// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/value"
)

// Format selects the parser for a configuration file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "unknown"
	}
}

// FormatFromPath derives the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("unknown config format for file %q", path)
	}
}

// File reads a configuration file and hands the parsed tree to the merge
// pipeline, stripped of any skipped fields' subtrees.
type File struct {
	path     string
	format   Format
	required bool
}

// NewFile declares a mandatory configuration file; a missing or malformed
// file fails the build. The format is derived from the extension.
func NewFile(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, format: format, required: true}, nil
}

// NewFileOptional declares an optional configuration file; when the file
// does not exist it contributes an empty tree instead of failing.
func NewFileOptional(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, format: format, required: false}, nil
}

// NewFileFormat declares a mandatory file with an explicit format,
// bypassing extension detection.
func NewFileFormat(path string, format Format) *File {
	return &File{path: path, format: format, required: true}
}

// Kind reports File (priority 1).
func (f *File) Kind() Kind { return KindFile }

// Collect reads and parses the file. The tree comes back as the parser
// produced it except that subtrees of skipped fields are removed, so
// external data can never populate a skipped field.
func (f *File) Collect(sch *schema.Schema) (value.Value, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) && !f.required {
			return value.Object(), nil
		}
		return value.Null(), fmt.Errorf("reading config file %q: %w", f.path, err)
	}

	tree, err := Parse(data, f.format)
	if err != nil {
		return value.Null(), fmt.Errorf("parsing config file %q: %w", f.path, err)
	}

	for i := range sch.Fields {
		if sch.Fields[i].Skip {
			tree.StripPath(sch.Fields[i].Path)
		}
	}
	return tree, nil
}
