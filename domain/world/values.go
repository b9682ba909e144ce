package world

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Values is an immutable, ordered field→value mapping for one module
// (value type). JSON encoding keeps field order.
type Values struct {
	keys []string
	vals map[string]any
}

// NewValues builds Values from keys in order. Keys missing from vals are skipped.
func NewValues(keys []string, vals map[string]any) Values {
	v := Values{vals: make(map[string]any, len(keys))}
	for _, k := range keys {
		x, ok := vals[k]
		if !ok {
			continue
		}
		if _, dup := v.vals[k]; dup {
			continue
		}
		v.keys = append(v.keys, k)
		v.vals[k] = x
	}
	return v
}

// Get returns the value of a field.
func (v Values) Get(name string) (any, bool) {
	x, ok := v.vals[name]
	return x, ok
}

// Float returns a numeric field as float64.
func (v Values) Float(name string) (float64, bool) {
	switch n := v.vals[name].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// String returns a string field.
func (v Values) String(name string) (string, bool) {
	s, ok := v.vals[name].(string)
	return s, ok
}

// Keys returns field names in order.
func (v Values) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Len returns the number of fields.
func (v Values) Len() int {
	return len(v.keys)
}

// IsZero reports whether v holds no fields.
func (v Values) IsZero() bool {
	return len(v.keys) == 0
}

// With returns a copy with name set to x. New names are appended.
func (v Values) With(name string, x any) Values {
	out := Values{
		keys: append([]string(nil), v.keys...),
		vals: make(map[string]any, len(v.vals)+1),
	}
	for k, val := range v.vals {
		out.vals[k] = val
	}
	if _, ok := out.vals[name]; !ok {
		out.keys = append(out.keys, name)
	}
	out.vals[name] = x
	return out
}

// Map returns a copy of the fields as a plain map.
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v.vals))
	for k, val := range v.vals {
		out[k] = val
	}
	return out
}

// Equal reports whether both hold the same fields in the same order.
func (v Values) Equal(o Values) bool {
	if len(v.keys) != len(o.keys) {
		return false
	}
	for i, k := range v.keys {
		if o.keys[i] != k {
			return false
		}
		if !reflect.DeepEqual(v.vals[k], o.vals[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes fields in order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.vals[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping the document key order.
func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("values: expected object")
	}

	out := Values{vals: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		k, _ := tok.(string)
		var x any
		if err := dec.Decode(&x); err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		if _, dup := out.vals[k]; !dup {
			out.keys = append(out.keys, k)
		}
		out.vals[k] = x
	}
	*v = out
	return nil
}
