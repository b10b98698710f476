// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package konfig

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/konfig/internal/naming"
	"github.com/MKhiriev/konfig/schema"
	"github.com/MKhiriev/konfig/value"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// project materializes the merged tree into target, walking the schema in
// field-declaration order and failing on the first unrecoverable error.
// The target is written only when every field converts, so a failed build
// never leaves a partially populated struct behind.
func project(tree value.Value, sch *schema.Schema, target any) error {
	out := reflect.New(sch.Type).Elem()

	for i := range sch.Fields {
		f := &sch.Fields[i]
		if f.Skip {
			continue
		}
		leaf, ok := tree.GetPath(f.Path)
		if !ok {
			if f.Type.Kind() == reflect.Pointer {
				continue
			}
			if node, depth, blocked := obstruction(tree, f.Path); blocked {
				return fmt.Errorf("%w: field %q: path %s blocked at %s by %s value %s",
					ErrSerialization, f.Name, strings.Join(f.Path, "."),
					strings.Join(f.Path[:depth], "."), node.Kind(), node)
			}
			return fmt.Errorf("%w %q (path %s)", ErrMissingField, f.Name, strings.Join(f.Path, "."))
		}
		dst := fieldByIndexAlloc(out, f.Index)
		if err := assign(dst, leaf, f.Name); err != nil {
			return err
		}
	}

	reflect.ValueOf(target).Elem().Set(out)
	return nil
}

// obstruction reports the first non-Object node standing on path, so a
// type mismatch that survived the merge is named instead of looking like a
// missing field. depth is how many segments were traversed to reach it.
func obstruction(tree value.Value, path []string) (node value.Value, depth int, blocked bool) {
	cur := tree
	for i, seg := range path {
		if cur.Kind() != value.KindObject {
			return cur, i, true
		}
		next, ok := cur.Get(seg)
		if !ok {
			return value.Value{}, 0, false
		}
		cur = next
	}
	return value.Value{}, 0, false
}

// fieldByIndexAlloc resolves a nested field, allocating intermediate nil
// struct pointers along the way.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// assign coerces one tree node into dst. String leaves are parsed with the
// standard textual rules; composite nodes recurse.
func assign(dst reflect.Value, v value.Value, name string) error {
	if dst.Kind() == reflect.Pointer {
		if v.IsNull() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), v, name)
	}

	if dst.Type() == durationType {
		return assignDuration(dst, v, name)
	}
	if dst.CanAddr() && reflect.PointerTo(dst.Type()).Implements(textUnmarshalerType) &&
		dst.Kind() != reflect.String {
		text, ok := textOf(v)
		if !ok {
			return conversionError(name, v, dst.Type())
		}
		if err := dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return fmt.Errorf("%w: field %q: cannot parse %q as %s: %v",
				ErrSerialization, name, text, dst.Type(), err)
		}
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		text, ok := textOf(v)
		if !ok {
			return conversionError(name, v, dst.Type())
		}
		dst.SetString(text)
		return nil

	case reflect.Bool:
		if b, ok := v.AsBool(); ok {
			dst.SetBool(b)
			return nil
		}
		if s, ok := v.AsString(); ok {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("%w: field %q: cannot parse %q as bool",
					ErrSerialization, name, s)
			}
			dst.SetBool(b)
			return nil
		}
		return conversionError(name, v, dst.Type())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := numberOf(v, name)
		if err != nil {
			return err
		}
		if n != math.Trunc(n) || dst.OverflowInt(int64(n)) {
			return rangeError(name, v, dst.Type())
		}
		dst.SetInt(int64(n))
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := numberOf(v, name)
		if err != nil {
			return err
		}
		if n < 0 || n != math.Trunc(n) || dst.OverflowUint(uint64(n)) {
			return rangeError(name, v, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		n, err := numberOf(v, name)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(n) {
			return rangeError(name, v, dst.Type())
		}
		dst.SetFloat(n)
		return nil

	case reflect.Slice:
		return assignSlice(dst, v, name)

	case reflect.Map:
		return assignMap(dst, v, name)

	case reflect.Struct:
		return assignStruct(dst, v, name)

	default:
		return fmt.Errorf("%w: field %q: unsupported target type %s",
			ErrSerialization, name, dst.Type())
	}
}

func assignDuration(dst reflect.Value, v value.Value, name string) error {
	if s, ok := v.AsString(); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%w: field %q: cannot parse %q as duration",
				ErrSerialization, name, s)
		}
		dst.SetInt(int64(d))
		return nil
	}
	if n, ok := v.AsNumber(); ok {
		dst.SetInt(int64(n))
		return nil
	}
	return conversionError(name, v, dst.Type())
}

func assignSlice(dst reflect.Value, v value.Value, name string) error {
	if dst.Type().Elem().Kind() == reflect.Uint8 {
		text, ok := textOf(v)
		if !ok {
			return conversionError(name, v, dst.Type())
		}
		dst.SetBytes([]byte(text))
		return nil
	}

	// Environment and CLI values arrive as text; a comma-separated string
	// is the flat-namespace spelling of a list.
	if s, ok := v.AsString(); ok {
		parts := strings.Split(s, ",")
		elems := make([]value.Value, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				elems = append(elems, value.String(p))
			}
		}
		v = value.Array(elems...)
	}
	if v.Kind() != value.KindArray {
		return conversionError(name, v, dst.Type())
	}

	out := reflect.MakeSlice(dst.Type(), v.Len(), v.Len())
	for i := 0; i < v.Len(); i++ {
		if err := assign(out.Index(i), v.At(i), fmt.Sprintf("%s[%d]", name, i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func assignMap(dst reflect.Value, v value.Value, name string) error {
	if dst.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: field %q: unsupported map key type %s",
			ErrSerialization, name, dst.Type().Key())
	}
	if v.Kind() != value.KindObject {
		return conversionError(name, v, dst.Type())
	}

	out := reflect.MakeMapWithSize(dst.Type(), v.Len())
	for _, key := range v.Keys() {
		entry, _ := v.Get(key)
		elem := reflect.New(dst.Type().Elem()).Elem()
		if err := assign(elem, entry, name+"."+key); err != nil {
			return err
		}
		out.SetMapIndex(reflect.ValueOf(key), elem)
	}
	dst.Set(out)
	return nil
}

// assignStruct converts an Object into a struct that appears below a slice
// or map, where schema flattening does not reach. Fields follow the same
// rules: snake_case keys, konfig:"-" exclusion, default tags, pointers
// optional.
func assignStruct(dst reflect.Value, v value.Value, name string) error {
	if v.Kind() != value.KindObject {
		return conversionError(name, v, dst.Type())
	}
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("konfig") == "-" {
			continue
		}
		fieldName := name + "." + sf.Name
		entry, ok := v.Get(naming.Snake(sf.Name))
		if !ok {
			if def, hasDef := sf.Tag.Lookup("default"); hasDef {
				entry = value.String(def)
			} else if sf.Type.Kind() == reflect.Pointer {
				continue
			} else {
				return fmt.Errorf("%w %q", ErrMissingField, fieldName)
			}
		}
		if err := assign(dst.Field(i), entry, fieldName); err != nil {
			return err
		}
	}
	return nil
}

// numberOf extracts a float64 from a Number or numeric String leaf.
func numberOf(v value.Value, name string) (float64, error) {
	if n, ok := v.AsNumber(); ok {
		return n, nil
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q: cannot parse %q as a number",
				ErrSerialization, name, s)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: field %q: expected a number, got %s",
		ErrSerialization, name, v.Kind())
}

// textOf renders a scalar leaf as text.
func textOf(v value.Value) (string, bool) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s, true
	case value.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'g', -1, 64), true
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), true
	default:
		return "", false
	}
}

func conversionError(name string, v value.Value, t reflect.Type) error {
	return fmt.Errorf("%w: field %q: cannot convert %s value %s to %s",
		ErrSerialization, name, v.Kind(), v, t)
}

func rangeError(name string, v value.Value, t reflect.Type) error {
	return fmt.Errorf("%w: field %q: value %s out of range for %s",
		ErrSerialization, name, v, t)
}
