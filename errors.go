package konfig

import (
	"errors"
	"fmt"
)

// Error kinds returned by the pipeline. Every error surfaced by Load,
// FromEnv, or Builder.Build wraps exactly one of these sentinels, so
// callers can classify failures with errors.Is.
var (
	// ErrEnvironment indicates a failure reading environment-sourced
	// values.
	ErrEnvironment = errors.New("environment error")
	// ErrConfig indicates a missing (when mandatory), unreadable, or
	// malformed configuration file.
	ErrConfig = errors.New("config file error")
	// ErrCli indicates malformed command-line input.
	ErrCli = errors.New("cli error")
	// ErrValidation indicates that a registered check rejected the merged
	// tree.
	ErrValidation = errors.New("validation error")
	// ErrSerialization indicates that a tree leaf could not be coerced to
	// its target type, or that reverse serialization failed.
	ErrSerialization = errors.New("serialization error")
	// ErrSchema indicates a schema-construction failure (duplicate
	// resolved names, unsupported target type). Schema errors are
	// detected before any source I/O occurs.
	ErrSchema = errors.New("schema error")
)

// ErrMissingField indicates a field absent from every source and without a
// default. It also matches ErrSerialization.
var ErrMissingField = fmt.Errorf("%w: missing field", ErrSerialization)
