package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/MKhiriev/konfig/value"
)

// Parse turns raw file bytes into a value tree using the given format's
// parser. JSON and YAML keep the document's key order; TOML decodes through
// unordered maps and is bridged with sorted keys.
func Parse(data []byte, format Format) (value.Value, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatTOML:
		return parseTOML(data)
	default:
		return value.Null(), fmt.Errorf("unsupported format %d", format)
	}
}

// parseJSON decodes from the token stream instead of unmarshaling into Go
// maps, so object key order survives into the tree.
func parseJSON(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return value.Null(), fmt.Errorf("json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return value.Null(), fmt.Errorf("json: unexpected data after document")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value.Null(), err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := value.Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return value.Null(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return value.Null(), fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return value.Null(), err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return value.Null(), err
			}
			return obj, nil
		case '[':
			var elems []value.Value
			for dec.More() {
				elem, err := decodeJSONValue(dec)
				if err != nil {
					return value.Null(), err
				}
				elems = append(elems, elem)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return value.Null(), err
			}
			return value.Array(elems...), nil
		default:
			return value.Null(), fmt.Errorf("unexpected delimiter %v", t)
		}
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return value.Null(), err
		}
		return value.Number(n), nil
	case nil:
		return value.Null(), nil
	default:
		return value.Null(), fmt.Errorf("unexpected token %v", tok)
	}
}

// parseYAML walks the yaml.Node tree, which preserves mapping order.
func parseYAML(data []byte) (value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return value.Null(), fmt.Errorf("yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return value.Object(), nil
	}
	v, err := fromYAMLNode(doc.Content[0])
	if err != nil {
		return value.Null(), fmt.Errorf("yaml: %w", err)
	}
	return v, nil
}

func fromYAMLNode(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Object(), nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		obj := value.Object()
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return value.Null(), err
			}
			obj.Set(n.Content[i].Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		elems := make([]value.Value, len(n.Content))
		for i, c := range n.Content {
			elem, err := fromYAMLNode(c)
			if err != nil {
				return value.Null(), err
			}
			elems[i] = elem
		}
		return value.Array(elems...), nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	default:
		return value.Null(), fmt.Errorf("unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

func yamlScalar(n *yaml.Node) (value.Value, error) {
	switch n.Tag {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return value.Null(), fmt.Errorf("bad bool %q at line %d", n.Value, n.Line)
		}
		return value.Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return value.Null(), fmt.Errorf("bad int %q at line %d", n.Value, n.Line)
		}
		return value.Number(float64(i)), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return value.Null(), fmt.Errorf("bad float %q at line %d", n.Value, n.Line)
		}
		return value.Number(f), nil
	default:
		return value.String(n.Value), nil
	}
}

func parseTOML(data []byte) (value.Value, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return value.Null(), fmt.Errorf("toml: %w", err)
	}
	return value.FromGo(m), nil
}
