package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Serializer converts request payloads to bytes and response bodies back into
// values.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONSerializer is the default Serializer.
//
// Output never contains null object members, and HTML characters are not
// escaped. Enums serialize as strings through encoding.TextMarshaler and
// time.Time serializes as RFC 3339.
type JSONSerializer struct{}

// Marshal implements Serializer.
func (JSONSerializer) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := dropNulls(json.NewDecoder(&buf), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Unmarshal implements Serializer.
func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// dropNulls copies the next JSON value from dec to out, removing object
// members whose value is null. Array elements are kept as they are.
func dropNulls(dec *json.Decoder, out *bytes.Buffer) error {
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return dropNullsObject(dec, out)
		case '[':
			return dropNullsArray(dec, out)
		default:
			return fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return writeScalar(out, tok)
	}
}

func dropNullsObject(dec *json.Decoder, out *bytes.Buffer) error {
	out.WriteByte('{')
	first := true
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}

		if !first {
			out.WriteByte(',')
		}
		first = false
		if err := writeScalar(out, key); err != nil {
			return err
		}
		out.WriteByte(':')
		if err := dropNulls(json.NewDecoder(bytes.NewReader(raw)), out); err != nil {
			return err
		}
	}
	// closing '}'
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	out.WriteByte('}')
	return nil
}

func dropNullsArray(dec *json.Decoder, out *bytes.Buffer) error {
	out.WriteByte('[')
	first := true
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if !first {
			out.WriteByte(',')
		}
		first = false
		if err := dropNulls(json.NewDecoder(bytes.NewReader(raw)), out); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}
	out.WriteByte(']')
	return nil
}

func writeScalar(out *bytes.Buffer, tok json.Token) error {
	switch v := tok.(type) {
	case nil:
		out.WriteString("null")
	case bool:
		if v {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
	case json.Number:
		out.WriteString(v.String())
	case string:
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return err
		}
		// Encode appends a newline.
		out.Truncate(out.Len() - 1)
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
	return nil
}
