// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package konfig

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOption adjusts the typed environment fast path.
type EnvOption func(*env.Options)

// WithEnvPrefix prepends prefix to every `env` tag lookup.
func WithEnvPrefix(prefix string) EnvOption {
	return func(o *env.Options) { o.Prefix = prefix }
}

// WithEnvVars reads from the given variables instead of the process
// environment.
func WithEnvVars(vars map[string]string) EnvOption {
	return func(o *env.Options) { o.Environment = vars }
}

// FromEnv populates target from environment variables alone, without the
// merge pipeline, using the caarlos0/env library. Struct fields are mapped
// via their `env` and `envPrefix` tags. Reach for this when environment
// variables are the only source and file or CLI precedence does not matter.
//
// Returns a wrapped error if parsing fails (e.g. a value cannot be
// converted to the target type).
func FromEnv(target any, opts ...EnvOption) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(target, o); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvironment, err)
	}
	return nil
}
