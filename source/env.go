// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package source

import (
	"os"
	"strings"

	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/value"
)

// Env reads configuration from an environment snapshot. The snapshot is
// captured once at construction so a build stays deterministic even if the
// host process mutates its environment concurrently.
type Env struct {
	vars map[string]string
}

// NewEnv snapshots the process environment.
func NewEnv() *Env {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return &Env{vars: vars}
}

// NewEnvSnapshot uses the given variables instead of the process
// environment. Intended for tests and for callers composing their own
// variable sets.
func NewEnvSnapshot(vars map[string]string) *Env {
	m := make(map[string]string, len(vars))
	for k, v := range vars {
		m[k] = v
	}
	return &Env{vars: m}
}

// Kind reports Environment (priority 2).
func (e *Env) Kind() Kind { return KindEnvironment }

// Collect resolves each non-skipped field's environment name and, when the
// variable is set, inserts its raw text as a String leaf at the field's
// tree path. Unset variables contribute nothing; presence is significant.
func (e *Env) Collect(sch *schema.Schema) (value.Value, error) {
	tree := value.Object()
	for i := range sch.Fields {
		f := &sch.Fields[i]
		if f.Skip {
			continue
		}
		if raw, ok := e.vars[f.EnvName]; ok {
			tree.SetPath(f.Path, value.String(raw))
		}
	}
	return tree, nil
}
