// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package merge folds per-source value trees into one canonical tree in
// ascending priority order. The fold is pure: the same input trees and
// strategy always produce the same output, and input trees are never
// mutated.
package merge

import (
	"sort"

	"github.com/MKhiriev/konfig/value"
)

// Strategy selects how two trees combine at composite nodes. It is chosen
// once per merge operation, not per field.
type Strategy int

const (
	// Deep recurses into Objects key by key, unioning key sets. Arrays are
	// replaced wholesale by the incoming side. A type mismatch is not an
	// error: the incoming value supersedes the accumulated subtree.
	Deep Strategy = iota

	// Replace overwrites per explicit key at each Object level without
	// recursing: any key the incoming side defines wins entirely, keys it
	// does not mention survive.
	Replace

	// Append behaves like Deep except that two Arrays concatenate,
	// accumulated elements first.
	Append
)

// String returns the lowercase strategy name.
func (s Strategy) String() string {
	switch s {
	case Deep:
		return "deep"
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}

// Combine merges incoming on top of base under the strategy. Neither
// argument is mutated.
func (s Strategy) Combine(base, incoming value.Value) value.Value {
	switch s {
	case Replace:
		return replaceMerge(base, incoming)
	case Append:
		return deepMerge(base, incoming, true)
	default:
		return deepMerge(base, incoming, false)
	}
}

func deepMerge(base, incoming value.Value, appendArrays bool) value.Value {
	if appendArrays && base.Kind() == value.KindArray && incoming.Kind() == value.KindArray {
		elems := make([]value.Value, 0, base.Len()+incoming.Len())
		for _, e := range base.Elems() {
			elems = append(elems, e.Clone())
		}
		for _, e := range incoming.Elems() {
			elems = append(elems, e.Clone())
		}
		return value.Array(elems...)
	}
	if base.Kind() != value.KindObject || incoming.Kind() != value.KindObject {
		return incoming.Clone()
	}

	out := base.Clone()
	for _, key := range incoming.Keys() {
		inc, _ := incoming.Get(key)
		if cur, ok := out.Get(key); ok {
			out.Set(key, deepMerge(cur, inc, appendArrays))
		} else {
			out.Set(key, inc.Clone())
		}
	}
	return out
}

func replaceMerge(base, incoming value.Value) value.Value {
	if base.Kind() != value.KindObject || incoming.Kind() != value.KindObject {
		return incoming.Clone()
	}
	out := base.Clone()
	for _, key := range incoming.Keys() {
		inc, _ := incoming.Get(key)
		out.Set(key, inc.Clone())
	}
	return out
}

// Tree is one source's contribution with its priority rank.
type Tree struct {
	Priority int
	Value    value.Value
}

// Merger folds prioritized trees with a fixed strategy.
type Merger struct {
	strategy Strategy
}

// NewMerger returns a Merger using the given strategy.
func NewMerger(strategy Strategy) Merger {
	return Merger{strategy: strategy}
}

// Merge folds trees in ascending priority order, starting from an empty
// Object. The sort is stable, so trees sharing a priority combine in the
// order they were registered.
func (m Merger) Merge(trees []Tree) value.Value {
	ordered := make([]Tree, len(trees))
	copy(ordered, trees)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	result := value.Object()
	for _, t := range ordered {
		result = m.strategy.Combine(result, t.Value)
	}
	return result
}
