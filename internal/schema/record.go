package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one row of a source table: a loose key/value bag with no enforced
// schema. Column order is preserved because some sets carry their date or
// dealer in an unnamed column and are only addressable by position.
type Record struct {
	keys   []string
	values map[string]any
}

func NewRecord() Record {
	return Record{values: make(map[string]any)}
}

// Set stores a value under key, appending the key to the column order the
// first time it is seen.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// At returns the value of the i-th column in source order.
func (r Record) At(i int) (any, bool) {
	if i < 0 || i >= len(r.keys) {
		return nil, false
	}
	return r.values[r.keys[i]], true
}

func (r Record) Len() int { return len(r.keys) }

func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Clone makes a shallow copy that can be written to without touching the
// original row.
func (r Record) Clone() Record {
	c := Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// UnmarshalJSON decodes a JSON object token by token so the column order of
// the upstream payload survives the round trip.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema: record must be a JSON object, got %v", tok)
	}
	r.keys = nil
	r.values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: non-string object key %v", keyTok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		r.Set(key, v)
	}
	_, err = dec.Token() // closing brace
	return err
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
