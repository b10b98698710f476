// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/konfig/value"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type fileFixture struct {
	Port   uint16
	Server struct {
		Host string
	}
	Secret string `konfig:"-"`
}

// ── formats ───────────────────────────────────────────────────────────────────

// TestFormatFromPath verifies extension detection for every supported
// format and the error for unknown extensions.
func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format Format
		ok     bool
	}{
		{"config.json", FormatJSON, true},
		{"config.yaml", FormatYAML, true},
		{"config.yml", FormatYAML, true},
		{"config.toml", FormatTOML, true},
		{"config.TOML", FormatTOML, true},
		{"config.ini", 0, false},
		{"config", 0, false},
	}
	for _, tt := range tests {
		format, err := FormatFromPath(tt.path)
		if !tt.ok {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.format, format, tt.path)
	}
}

// TestParse_JSONKeepsKeyOrder verifies that JSON object keys survive in
// document order.
func TestParse_JSONKeepsKeyOrder(t *testing.T) {
	tree, err := Parse([]byte(`{"zebra": 1, "alpha": {"b": true, "a": null}, "mike": [1, "two"]}`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"zebra", "alpha", "mike"}, tree.Keys())

	nested, ok := tree.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, nested.Keys())

	arr, _ := tree.Get("mike")
	require.Equal(t, value.KindArray, arr.Kind())
	n, _ := arr.At(0).AsNumber()
	assert.Equal(t, 1.0, n)
	s, _ := arr.At(1).AsString()
	assert.Equal(t, "two", s)
}

// TestParse_JSONMalformed verifies parse errors surface.
func TestParse_JSONMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"port": }`), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"a":1} trailing`), FormatJSON)
	assert.Error(t, err)
}

// TestParse_YAML verifies YAML scalars, nesting, and key order.
func TestParse_YAML(t *testing.T) {
	doc := `
zebra: 8080
alpha:
  host: localhost
  ratio: 0.5
  debug: true
  nothing: null
mike:
  - one
  - 2
`
	tree, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"zebra", "alpha", "mike"}, tree.Keys())

	port, _ := tree.Get("zebra")
	n, ok := port.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 8080.0, n)

	debug, ok := tree.GetPath([]string{"alpha", "debug"})
	require.True(t, ok)
	b, _ := debug.AsBool()
	assert.True(t, b)

	nothing, _ := tree.GetPath([]string{"alpha", "nothing"})
	assert.True(t, nothing.IsNull())
}

// TestParse_YAMLEmpty verifies an empty document yields an empty Object.
func TestParse_YAMLEmpty(t *testing.T) {
	tree, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, value.KindObject, tree.Kind())
	assert.Equal(t, 0, tree.Len())
}

// TestParse_TOML verifies TOML tables, arrays of tables, and scalars.
func TestParse_TOML(t *testing.T) {
	doc := `
port = 8080
debug = true

[server]
host = "localhost"

[[upstreams]]
name = "first"

[[upstreams]]
name = "second"
`
	tree, err := Parse([]byte(doc), FormatTOML)
	require.NoError(t, err)

	port, _ := tree.Get("port")
	n, ok := port.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 8080.0, n)

	host, ok := tree.GetPath([]string{"server", "host"})
	require.True(t, ok)
	s, _ := host.AsString()
	assert.Equal(t, "localhost", s)

	upstreams, _ := tree.Get("upstreams")
	require.Equal(t, value.KindArray, upstreams.Kind())
	require.Equal(t, 2, upstreams.Len())
	name, _ := upstreams.At(0).Get("name")
	s, _ = name.AsString()
	assert.Equal(t, "first", s)
}

// ── collection ────────────────────────────────────────────────────────────────

// TestFileCollect_StripsSkippedFields verifies that file data matching a
// skipped field's path is removed before merging.
func TestFileCollect_StripsSkippedFields(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{"port": 8080, "secret": "leak", "server": {"host": "h"}}`)
	f, err := NewFile(path)
	require.NoError(t, err)

	tree, err := f.Collect(buildSchema(t, fileFixture{}, ""))
	require.NoError(t, err)

	_, ok := tree.Get("secret")
	assert.False(t, ok)
	_, ok = tree.Get("port")
	assert.True(t, ok)
}

// TestFileCollect_MissingMandatory verifies that a mandatory file that does
// not exist fails the collection.
func TestFileCollect_MissingMandatory(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	_, err = f.Collect(buildSchema(t, fileFixture{}, ""))
	assert.Error(t, err)
}

// TestFileCollect_MissingOptional verifies that an optional absent file
// contributes an empty Object instead of failing.
func TestFileCollect_MissingOptional(t *testing.T) {
	f, err := NewFileOptional(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	tree, err := f.Collect(buildSchema(t, fileFixture{}, ""))
	require.NoError(t, err)
	assert.Equal(t, value.KindObject, tree.Kind())
	assert.Equal(t, 0, tree.Len())
}

// TestFileCollect_ExplicitFormat verifies that NewFileFormat bypasses
// extension detection.
func TestFileCollect_ExplicitFormat(t *testing.T) {
	path := writeTempConfig(t, "settings.conf", `port = 8080`)
	f := NewFileFormat(path, FormatTOML)

	tree, err := f.Collect(buildSchema(t, fileFixture{}, ""))
	require.NoError(t, err)

	port, ok := tree.Get("port")
	require.True(t, ok)
	n, _ := port.AsNumber()
	assert.Equal(t, 8080.0, n)
}

// TestFileCollect_Malformed verifies that parser failures surface with the
// file path in the message.
func TestFileCollect_Malformed(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{not json`)
	f, err := NewFile(path)
	require.NoError(t, err)

	_, err = f.Collect(buildSchema(t, fileFixture{}, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
