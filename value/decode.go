package value

import (
	"fmt"
	"reflect"
	"time"

	"github.com/MKhiriev/konfig/internal/naming"
)

// FromGo bridges dynamically-typed parser output (nested maps, slices, and
// scalars as produced by format parsers) into a Value. Unordered Go maps are
// bridged with lexically sorted keys so the result is deterministic.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case time.Time:
		return String(x.Format(time.RFC3339))
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = FromGo(e)
		}
		return Array(elems...)
	case map[string]any:
		obj := Object()
		for _, k := range sortedKeys(x) {
			obj.Set(k, FromGo(x[k]))
		}
		return obj
	}

	// Parsers occasionally hand back concrete slice or map types, e.g.
	// []map[string]any for TOML arrays of tables.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			elems[i] = FromGo(rv.Index(i).Interface())
		}
		return Array(elems...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null()
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromGo(m)
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	default:
		return Null()
	}
}

// Encode reflects a Go value into a Value tree. Struct fields appear in
// declaration order under their snake_case names; fields tagged `konfig:"-"`
// are left out. This is the reverse of typed projection and also feeds
// caller-supplied default structs into the pipeline.
func Encode(v any) (Value, error) {
	return encode(reflect.ValueOf(v), false)
}

// EncodeNonZero is Encode restricted to non-zero struct fields, producing
// the partial tree a defaults source contributes: a zero field states
// nothing rather than an empty value.
func EncodeNonZero(v any) (Value, error) {
	return encode(reflect.ValueOf(v), true)
}

func encode(rv reflect.Value, omitZero bool) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	switch rv.Type() {
	case reflect.TypeOf(time.Duration(0)):
		return String(time.Duration(rv.Int()).String()), nil
	case reflect.TypeOf(time.Time{}):
		return String(rv.Interface().(time.Time).Format(time.RFC3339)), nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return encode(rv.Elem(), omitZero)
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(string(rv.Bytes())), nil
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			e, err := encode(rv.Index(i), omitZero)
			if err != nil {
				return Null(), err
			}
			elems[i] = e
		}
		return Array(elems...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null(), fmt.Errorf("cannot encode map with %s keys", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		obj := Object()
		for _, k := range sortedStrings(keys) {
			e, err := encode(rv.MapIndex(reflect.ValueOf(k)), omitZero)
			if err != nil {
				return Null(), err
			}
			obj.Set(k, e)
		}
		return obj, nil
	case reflect.Struct:
		return encodeStruct(rv, omitZero)
	default:
		return Null(), fmt.Errorf("cannot encode %s value", rv.Kind())
	}
}

func encodeStruct(rv reflect.Value, omitZero bool) (Value, error) {
	t := rv.Type()
	obj := Object()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("konfig") == "-" {
			continue
		}
		fv := rv.Field(i)
		if omitZero && fv.IsZero() {
			continue
		}
		e, err := encode(fv, omitZero)
		if err != nil {
			return Null(), fmt.Errorf("field %s: %w", sf.Name, err)
		}
		if omitZero && e.Kind() == KindObject && e.Len() == 0 {
			continue
		}
		obj.Set(naming.Snake(sf.Name), e)
	}
	return obj, nil
}

func sortedStrings(keys []string) []string {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return sortedKeys(m)
}
