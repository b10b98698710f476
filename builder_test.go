// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package konfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/konfig/merge"
	"github.com/MKhiriev/konfig/source"
	"github.com/MKhiriev/konfig/value"
)

type appConfig struct {
	DatabaseURL string `default:"postgres://localhost/app"`
	Port        uint16 `default:"8080"`
	Debug       bool   `default:"false"`
	Server      struct {
		Host string `default:"localhost"`
	}
	Runtime *os.File `konfig:"-"`
}

func writeTempJSONConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ── pipeline ──────────────────────────────────────────────────────────────────

// TestBuild_TagDefaultsOnly verifies that a build with no registered sources
// still materializes the default tags.
func TestBuild_TagDefaultsOnly(t *testing.T) {
	var cfg appConfig
	require.NoError(t, New().Build(&cfg))

	assert.Equal(t, "postgres://localhost/app", cfg.DatabaseURL)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

// TestBuild_EnvOverridesFile verifies the fixed precedence: an environment
// variable beats the same key from a config file.
func TestBuild_EnvOverridesFile(t *testing.T) {
	path := writeTempJSONConfig(t, `{"port": 8080, "database_url": "from-file"}`)

	var cfg appConfig
	err := New().
		WithFile(path).
		WithEnvSnapshot("", map[string]string{"PORT": "9090"}).
		Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.Port)
	assert.Equal(t, "from-file", cfg.DatabaseURL)
}

// TestBuild_CliOverridesEnv verifies that a command-line flag beats an
// environment variable for the same key.
func TestBuild_CliOverridesEnv(t *testing.T) {
	var cfg appConfig
	err := New().
		WithEnvSnapshot("", map[string]string{"PORT": "9090", "DEBUG": "false"}).
		WithCliArgs([]string{"--port", "7070", "--debug"}).
		Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, uint16(7070), cfg.Port)
	assert.True(t, cfg.Debug)
}

// TestBuild_RegistrationOrderIrrelevant verifies that precedence follows
// source kind, not the order the sources were registered in.
func TestBuild_RegistrationOrderIrrelevant(t *testing.T) {
	path := writeTempJSONConfig(t, `{"port": 8080}`)

	var cfg appConfig
	err := New().
		WithEnvSnapshot("", map[string]string{"PORT": "9090"}).
		WithFile(path).
		Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.Port)
}

// TestBuild_EnvPrefix verifies that the prefix leads every derived
// environment name and the unprefixed spelling is ignored.
func TestBuild_EnvPrefix(t *testing.T) {
	var cfg appConfig
	err := New().
		WithEnvSnapshot("APP", map[string]string{
			"APP_PORT":        "9090",
			"PORT":            "1111",
			"APP_SERVER_HOST": "example.com",
		}).
		Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.Port)
	assert.Equal(t, "example.com", cfg.Server.Host)
}

// TestBuild_TypedDefaultsBeatTagDefaults verifies that a defaults struct
// overrides default tags but loses to every real source.
func TestBuild_TypedDefaultsBeatTagDefaults(t *testing.T) {
	var cfg appConfig
	err := New().
		WithDefault(&appConfig{Port: 6060, DatabaseURL: "typed"}).
		WithEnvSnapshot("", map[string]string{"DATABASE_URL": "from-env"}).
		Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, uint16(6060), cfg.Port, "typed default beats tag default")
	assert.Equal(t, "from-env", cfg.DatabaseURL, "environment beats typed default")
	assert.Equal(t, "localhost", cfg.Server.Host, "untouched tag default survives")
}

// TestBuild_LaterDefaultsOverrideEarlier verifies that successive WithDefault
// calls combine with later calls winning for the fields they set.
func TestBuild_LaterDefaultsOverrideEarlier(t *testing.T) {
	var cfg appConfig
	err := New().
		WithDefault(&appConfig{Port: 6060, DatabaseURL: "first"}).
		WithDefault(&appConfig{DatabaseURL: "second"}).
		Build(&cfg)
	require.NoError(t, err)

	assert.Equal(t, uint16(6060), cfg.Port)
	assert.Equal(t, "second", cfg.DatabaseURL)
}

// TestBuild_DefaultsMustBeStructPointer verifies the WithDefault argument
// contract.
func TestBuild_DefaultsMustBeStructPointer(t *testing.T) {
	var cfg appConfig
	err := New().WithDefault(appConfig{}).Build(&cfg)
	assert.ErrorIs(t, err, ErrSchema)
}

// ── error accumulation ────────────────────────────────────────────────────────

// TestBuild_PropagatesBuilderError verifies that a registration error is
// deferred and surfaced by Build, and that later registrations still apply.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	var cfg appConfig
	err := New().
		WithFile("config.ini"). // unknown extension
		WithEnvSnapshot("", nil).
		Build(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Zero(t, cfg)
}

// TestBuild_AccumulatesRegistrationErrors verifies that every registration
// error survives to Build, not only the first.
func TestBuild_AccumulatesRegistrationErrors(t *testing.T) {
	var cfg appConfig
	err := New().
		WithFile("a.ini").
		WithFileOptional("b.unknown").
		Build(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.ini")
	assert.Contains(t, err.Error(), "b.unknown")
}

// TestBuild_TargetMustBeStructPointer verifies target validation.
func TestBuild_TargetMustBeStructPointer(t *testing.T) {
	assert.ErrorIs(t, New().Build(nil), ErrSchema)
	assert.ErrorIs(t, New().Build(appConfig{}), ErrSchema)

	var n int
	assert.ErrorIs(t, New().Build(&n), ErrSchema)
}

// TestBuild_SourceErrorsCarrySentinels verifies that collection failures
// surface under the source's error sentinel.
func TestBuild_SourceErrorsCarrySentinels(t *testing.T) {
	var cfg appConfig
	err := New().WithFile(filepath.Join(t.TempDir(), "absent.json")).Build(&cfg)
	assert.ErrorIs(t, err, ErrConfig)
}

// ── validation ────────────────────────────────────────────────────────────────

// TestBuild_ValidationRunsOnMergedTree verifies checks see the fully merged
// tree and a failure stops the pipeline before projection.
func TestBuild_ValidationRunsOnMergedTree(t *testing.T) {
	var seen value.Value
	var cfg appConfig
	cfg.Port = 1234 // sentinel: must survive a failed build untouched

	err := New().
		WithEnvSnapshot("", map[string]string{"PORT": "9090"}).
		ValidateWith(func(tree value.Value) error {
			seen = tree
			return assert.AnError
		}).
		Build(&cfg)

	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, uint16(1234), cfg.Port, "failed build must not touch the target")

	port, ok := seen.Get("port")
	require.True(t, ok)
	s, _ := port.AsString()
	assert.Equal(t, "9090", s)
}

// TestBuild_ChecksStopAtFirstFailure verifies registration-order execution
// with fail-fast semantics.
func TestBuild_ChecksStopAtFirstFailure(t *testing.T) {
	first := errors.New("first check failed")
	secondRan := false

	var cfg appConfig
	err := New().
		ValidateWith(func(value.Value) error { return first }).
		ValidateWith(func(value.Value) error { secondRan = true; return nil }).
		Build(&cfg)

	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), first.Error())
	assert.False(t, secondRan)
}

// ── strategies ────────────────────────────────────────────────────────────────

// TestBuild_ReplaceStrategy verifies that Replace keeps whole subtrees from
// the strongest source that sets the top-level key.
func TestBuild_ReplaceStrategy(t *testing.T) {
	type replicaConfig struct {
		Server struct {
			Host string
			Port uint16 `default:"8080"`
		}
	}
	path := writeTempJSONConfig(t, `{"server": {"host": "from-file", "port": 9090}}`)

	var cfg replicaConfig
	err := New().
		WithMergeStrategy(merge.Replace).
		WithFile(path).
		Build(&cfg)
	require.NoError(t, err)

	// The file's server object replaces the defaults' server object wholesale.
	assert.Equal(t, "from-file", cfg.Server.Host)
	assert.Equal(t, uint16(9090), cfg.Server.Port)
}

// TestBuildValue_ReturnsMergedTree verifies the untyped escape hatch.
func TestBuildValue_ReturnsMergedTree(t *testing.T) {
	tree, err := New().
		WithEnvSnapshot("", map[string]string{"DEBUG": "true"}).
		BuildValue(&appConfig{})
	require.NoError(t, err)

	debug, ok := tree.Get("debug")
	require.True(t, ok)
	s, _ := debug.AsString()
	assert.Equal(t, "true", s)
}

// TestBuild_FileFormatOverride verifies WithFileFormat parses a file whose
// extension does not match its contents.
func TestBuild_FileFormatOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 4040}`), 0o644))

	var cfg appConfig
	err := New().WithFileFormat(path, source.FormatJSON).Build(&cfg)
	require.NoError(t, err)
	assert.Equal(t, uint16(4040), cfg.Port)
}
