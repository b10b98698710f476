// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package source contains the configuration source adapters. Each adapter
// turns collaborator-provided raw data (a parsed file, an environment
// snapshot, a CLI argument list, default tags) into a partial value tree,
// guided by the field schema. Adapters never merge; they only contribute.
package source

import (
	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/value"
)

// Kind identifies a configuration source and fixes its merge priority.
type Kind int

// Sources in ascending priority. A value from a higher-priority source wins
// over a lower one for the same path. The order is not configurable.
const (
	KindDefault Kind = iota
	KindFile
	KindEnvironment
	KindCli
)

// Priority returns the source's merge rank; higher wins.
func (k Kind) Priority() int { return int(k) }

// String returns the lowercase source name.
func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindFile:
		return "file"
	case KindEnvironment:
		return "environment"
	case KindCli:
		return "cli"
	default:
		return "unknown"
	}
}

// Source is one origin of configuration data.
type Source interface {
	// Kind identifies the source and its priority.
	Kind() Kind

	// Collect projects the source's raw data onto a partial value tree.
	// Fields flagged skip in the schema never appear in the result, and
	// absent raw data contributes nothing rather than a Null.
	Collect(sch *schema.Schema) (value.Value, error)
}
