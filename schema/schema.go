// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package schema builds the per-field configuration schema from struct
// metadata, once, at pipeline start.
//
// Struct tags:
//   - env       — verbatim environment variable name for this field.
//   - envPrefix — replaces the inherited naming prefix for a nested struct.
//   - flag      — verbatim CLI flag name (without the leading dashes).
//   - default   — textual default value, lowest merge priority.
//   - konfig:"-" — exclude the field (and its subtree) from every source.
//
// Without overrides, a field's canonical external name is the
// underscore-joined chain {PREFIX}_{STRUCT_SEGMENTS...}_{FIELD} of
// snake-cased identifiers, uppercased for environment variables and
// hyphen-joined lowercase for CLI flags.
package schema

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/MKhiriev/konfig/internal/naming"
)

// ErrDuplicateName reports two non-skipped fields resolving to the same
// external name. Detected at schema construction time because it would
// cause silent data loss at merge time.
var ErrDuplicateName = errors.New("duplicate resolved name")

// Field describes one leaf of the configuration struct.
type Field struct {
	// Name is the Go field name, used in error messages.
	Name string

	// Path locates the field inside the value tree: the chain of
	// snake-cased identifiers from the root struct down.
	Path []string

	// EnvName is the resolved environment variable name.
	EnvName string

	// FlagName is the resolved CLI flag name, without leading dashes.
	FlagName string

	// Default is the textual default value; meaningful when HasDefault.
	Default    string
	HasDefault bool

	// Skip excludes the field from every source and from projection.
	Skip bool

	// Type is the declared Go type of the field.
	Type reflect.Type

	// Index is the reflect field index chain from the root struct.
	Index []int
}

// Options controls schema construction.
type Options struct {
	// Prefix is the leading segment of every derived external name,
	// e.g. "APP" for APP_PORT and --app-port.
	Prefix string
}

// Schema is the immutable field table for one configuration struct.
type Schema struct {
	Type   reflect.Type
	Prefix string
	Fields []Field

	byEnv  map[string]*Field
	byFlag map[string]*Field
}

// Build constructs the schema for struct type t. Nested structs are
// flattened into leaf fields; a nested struct field tagged with envPrefix
// restarts its subtree's naming at that prefix. Build fails if two
// non-skipped fields resolve to the same tree path, environment name, or
// flag name.
func Build(t reflect.Type, opts Options) (*Schema, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("configuration target must be a struct, got %s", t.Kind())
	}

	s := &Schema{
		Type:   t,
		Prefix: opts.Prefix,
		byEnv:  make(map[string]*Field),
		byFlag: make(map[string]*Field),
	}

	var envParts, flagParts []string
	if opts.Prefix != "" {
		envParts = []string{opts.Prefix}
		flagParts = []string{strings.ToLower(naming.Kebab(opts.Prefix))}
	}
	if err := s.walk(t, nil, nil, envParts, flagParts); err != nil {
		return nil, err
	}

	byPath := make(map[string]*Field, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Skip {
			continue
		}
		path := strings.Join(f.Path, ".")
		if prev, dup := byPath[path]; dup {
			return nil, fmt.Errorf("%w: fields %s and %s both resolve to tree path %q",
				ErrDuplicateName, prev.Name, f.Name, path)
		}
		byPath[path] = f
		if prev, dup := s.byEnv[f.EnvName]; dup {
			return nil, fmt.Errorf("%w: fields %s and %s both resolve to environment name %q",
				ErrDuplicateName, prev.Name, f.Name, f.EnvName)
		}
		if prev, dup := s.byFlag[f.FlagName]; dup {
			return nil, fmt.Errorf("%w: fields %s and %s both resolve to flag name %q",
				ErrDuplicateName, prev.Name, f.Name, f.FlagName)
		}
		s.byEnv[f.EnvName] = f
		s.byFlag[f.FlagName] = f
	}

	return s, nil
}

func (s *Schema) walk(t reflect.Type, index []int, path, envParts, flagParts []string) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		seg := naming.Snake(sf.Name)
		fieldIndex := appendCopy(index, i)
		fieldPath := appendCopy(path, seg)

		if sf.Tag.Get("konfig") == "-" {
			s.Fields = append(s.Fields, Field{
				Name:  sf.Name,
				Path:  fieldPath,
				Skip:  true,
				Type:  sf.Type,
				Index: fieldIndex,
			})
			continue
		}

		if nested(sf.Type) {
			childEnv := appendCopy(envParts, seg)
			childFlag := appendCopy(flagParts, naming.Kebab(sf.Name))
			if prefix, ok := sf.Tag.Lookup("envPrefix"); ok {
				prefix = strings.Trim(prefix, "_")
				childEnv, childFlag = nil, nil
				if prefix != "" {
					childEnv = []string{prefix}
					childFlag = []string{strings.ToLower(naming.Kebab(prefix))}
				}
			}
			elem := sf.Type
			if elem.Kind() == reflect.Pointer {
				elem = elem.Elem()
			}
			if err := s.walk(elem, fieldIndex, fieldPath, childEnv, childFlag); err != nil {
				return err
			}
			continue
		}

		f := Field{
			Name:    sf.Name,
			Path:    fieldPath,
			EnvName: joinUpper(appendCopy(envParts, seg)),
			Type:    sf.Type,
			Index:   fieldIndex,
		}
		if name, ok := sf.Tag.Lookup("env"); ok {
			f.EnvName = name
		}
		f.FlagName = strings.Join(appendCopy(flagParts, naming.Kebab(sf.Name)), "-")
		if name, ok := sf.Tag.Lookup("flag"); ok {
			f.FlagName = name
		}
		if def, ok := sf.Tag.Lookup("default"); ok {
			f.Default = def
			f.HasDefault = true
		}
		s.Fields = append(s.Fields, f)
	}
	return nil
}

// FieldByEnv maps a flat environment variable name back to its field.
// This is the inverse of name resolution, used by the environment adapter.
func (s *Schema) FieldByEnv(name string) (*Field, bool) {
	f, ok := s.byEnv[name]
	return f, ok
}

// FieldByFlag maps a CLI flag name back to its field.
func (s *Schema) FieldByFlag(name string) (*Field, bool) {
	f, ok := s.byFlag[name]
	return f, ok
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// nested reports whether a field type should be flattened into sub-fields
// rather than treated as one leaf. Types with their own textual form
// (time.Time, time.Duration, TextUnmarshaler implementations) stay leaves.
func nested(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	if t == reflect.TypeOf(time.Time{}) {
		return false
	}
	if t.Implements(textUnmarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return false
	}
	return true
}

func joinUpper(parts []string) string {
	return strings.ToUpper(strings.Join(parts, "_"))
}

// appendCopy appends without aliasing the parent slice's backing array.
func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
