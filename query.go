package core

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

type queryPair struct {
	key   string
	value string
}

// EncodeQuery flattens params into a query string without the leading '?'.
//
// Struct fields are emitted in declaration order using their json tag names.
// Scalars become one key=value pair, slices and arrays become one pair per
// element, and nil or omitempty-zero fields are left out. Maps are emitted in
// sorted key order.
func EncodeQuery(params any) (string, error) {
	pairs, err := flattenQuery(params)
	if err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escapeQuery(p.key))
		b.WriteByte('=')
		b.WriteString(escapeQuery(p.value))
	}
	return b.String(), nil
}

// escapeQuery percent-encodes s, using %20 rather than '+' for spaces.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func flattenQuery(params any) ([]queryPair, error) {
	if params == nil {
		return nil, nil
	}

	if values, ok := params.(url.Values); ok {
		return flattenValues(values), nil
	}

	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return flattenStruct(v)
	case reflect.Map:
		return flattenMap(v)
	default:
		return nil, fmt.Errorf("query parameters must be a struct or map, got %s", v.Type())
	}
}

func flattenValues(values url.Values) []queryPair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []queryPair
	for _, k := range keys {
		for _, value := range values[k] {
			pairs = append(pairs, queryPair{key: k, value: value})
		}
	}
	return pairs
}

func flattenStruct(v reflect.Value) ([]queryPair, error) {
	t := v.Type()
	var pairs []queryPair

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty, skip := parseJSONTag(field)
		if skip {
			continue
		}

		fieldPairs, err := flattenField(name, v.Field(i), omitEmpty)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		pairs = append(pairs, fieldPairs...)
	}
	return pairs, nil
}

func flattenMap(v reflect.Value) ([]queryPair, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("query map keys must be strings, got %s", v.Type().Key())
	}

	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	var pairs []queryPair
	for _, k := range keys {
		fieldPairs, err := flattenField(k, v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())), false)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		pairs = append(pairs, fieldPairs...)
	}
	return pairs, nil
}

func flattenField(name string, v reflect.Value, omitEmpty bool) ([]queryPair, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if omitEmpty && v.IsZero() {
		return nil, nil
	}

	if s, ok := scalarString(v); ok {
		return []queryPair{{key: name, value: s}}, nil
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		var pairs []queryPair
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			for (elem.Kind() == reflect.Pointer || elem.Kind() == reflect.Interface) && !elem.IsNil() {
				elem = elem.Elem()
			}
			if elem.Kind() == reflect.Pointer || elem.Kind() == reflect.Interface {
				continue
			}
			s, ok := scalarString(elem)
			if !ok {
				return nil, fmt.Errorf("unsupported element type %s", elem.Type())
			}
			pairs = append(pairs, queryPair{key: name, value: s})
		}
		return pairs, nil
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
	}

	return nil, fmt.Errorf("unsupported type %s", v.Type())
}

var timeType = reflect.TypeOf(time.Time{})

// scalarString renders v when it is a query scalar.
func scalarString(v reflect.Value) (string, bool) {
	if v.Type() == timeType {
		return v.Interface().(time.Time).UTC().Format(time.RFC3339Nano), true
	}

	if v.CanInterface() {
		switch s := v.Interface().(type) {
		case encoding.TextMarshaler:
			text, err := s.MarshalText()
			if err == nil {
				return string(text), true
			}
		case fmt.Stringer:
			return s.String(), true
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}

func parseJSONTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = field.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
