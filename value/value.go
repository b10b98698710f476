// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package value defines the format-agnostic configuration tree that every
// source (defaults, files, environment variables, CLI flags) is projected
// into before merging.
//
// A Value is a tagged variant: Null, Bool, Number, String, Array or Object.
// Object keys are case-sensitive, unique, and keep their insertion order so
// that merge results diff deterministically in tests.
package value

import (
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one node of the configuration tree. The zero Value is Null.
//
// Composite Values (Array, Object) share their backing storage when copied,
// the same way Go slices and maps do. Use Clone for an independent tree.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  *object
}

// object stores Object entries with insertion order preserved.
type object struct {
	keys []string
	vals map[string]Value
}

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a Number value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an Array value holding elems in order.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: elems}
}

// Object returns an empty Object value.
func Object() Value {
	return Value{kind: KindObject, obj: &object{vals: make(map[string]Value)}}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. ok is false unless v is a Bool.
func (v Value) AsBool() (b bool, ok bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the numeric payload. ok is false unless v is a Number.
func (v Value) AsNumber() (n float64, ok bool) {
	return v.num, v.kind == KindNumber
}

// AsString returns the string payload. ok is false unless v is a String.
func (v Value) AsString() (s string, ok bool) {
	return v.str, v.kind == KindString
}

// Len returns the element count of an Array or the key count of an Object,
// and 0 for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj.keys)
	default:
		return 0
	}
}

// At returns the i-th element of an Array. It returns Null when v is not an
// Array or i is out of range.
func (v Value) At(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null()
	}
	return v.arr[i]
}

// Elems returns the backing element slice of an Array, or nil.
func (v Value) Elems() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Append returns an Array with elem appended. When v is not an Array the
// result is a single-element Array.
func (v Value) Append(elem Value) Value {
	if v.kind != KindArray {
		return Array(elem)
	}
	return Value{kind: KindArray, arr: append(v.arr, elem)}
}

// Keys returns Object keys in insertion order, or nil for other kinds.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.obj.keys
}

// Get returns the Object entry for key. ok is false when v is not an Object
// or the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null(), false
	}
	val, ok := v.obj.vals[key]
	return val, ok
}

// Set inserts or replaces an Object entry, preserving the key's original
// insertion position. Set is a no-op when v is not an Object.
func (v Value) Set(key string, val Value) {
	if v.kind != KindObject {
		return
	}
	if _, exists := v.obj.vals[key]; !exists {
		v.obj.keys = append(v.obj.keys, key)
	}
	v.obj.vals[key] = val
}

// Delete removes an Object entry if present.
func (v Value) Delete(key string) {
	if v.kind != KindObject {
		return
	}
	if _, exists := v.obj.vals[key]; !exists {
		return
	}
	delete(v.obj.vals, key)
	for i, k := range v.obj.keys {
		if k == key {
			v.obj.keys = append(v.obj.keys[:i], v.obj.keys[i+1:]...)
			break
		}
	}
}

// GetPath descends the dotted path inside nested Objects. ok is false as
// soon as any segment is absent or a non-Object is hit before the last
// segment.
func (v Value) GetPath(path []string) (Value, bool) {
	cur := v
	for _, seg := range path {
		next, ok := cur.Get(seg)
		if !ok {
			return Null(), false
		}
		cur = next
	}
	return cur, true
}

// SetPath inserts val at path, creating intermediate Objects as needed.
// Intermediate nodes that exist but are not Objects are replaced.
// The receiver must be an Object; otherwise SetPath is a no-op.
func (v Value) SetPath(path []string, val Value) {
	if v.kind != KindObject || len(path) == 0 {
		return
	}
	cur := v
	for _, seg := range path[:len(path)-1] {
		next, ok := cur.Get(seg)
		if !ok || next.kind != KindObject {
			next = Object()
			cur.Set(seg, next)
		}
		cur = next
	}
	cur.Set(path[len(path)-1], val)
}

// StripPath removes the entry at path if it exists, leaving siblings and
// intermediate Objects untouched. Used to exclude skipped fields from
// externally supplied trees.
func (v Value) StripPath(path []string) {
	if len(path) == 0 {
		return
	}
	parent := v
	for _, seg := range path[:len(path)-1] {
		next, ok := parent.Get(seg)
		if !ok || next.kind != KindObject {
			return
		}
		parent = next
	}
	parent.Delete(path[len(path)-1])
}

// Clone returns a deep copy sharing no storage with v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		elems := make([]Value, len(v.arr))
		for i, e := range v.arr {
			elems[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: elems}
	case KindObject:
		out := Object()
		for _, k := range v.obj.keys {
			out.Set(k, v.obj.vals[k].Clone())
		}
		return out
	default:
		return v
	}
}

// Equal reports deep semantic equality. Object comparison ignores key
// order; Array comparison does not.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj.keys) != len(other.obj.keys) {
			return false
		}
		for _, k := range v.obj.keys {
			ov, ok := other.Get(k)
			if !ok || !v.obj.vals[k].Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the tree in a compact JSON-like form for diagnostics and
// test failure messages. Object keys appear in insertion order.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.render(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			v.obj.vals[k].render(sb)
		}
		sb.WriteByte('}')
	}
}

// sortedKeys returns map keys in lexical order for deterministic bridging
// of unordered Go maps.
func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
