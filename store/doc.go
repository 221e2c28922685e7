// Package store persists shared analysis artifacts as merged JSON documents.
//
// Several analysis processes may contribute to the same artifact file, so
// every save is a read-merge-write cycle guarded by a lock sentinel and
// finished with an atomic rename. Documents preserve the key order of the
// file on disk, which keeps class-pair iteration deterministic across runs.
package store

import (
	"bytes"
	"encoding/json"

	"github.com/omicsrank/biomark/pkg/errors"
)

// Doc is a JSON object that preserves key insertion order. Nested objects
// decode to *Doc; all other values decode to the usual encoding/json types.
type Doc struct {
	keys []string
	vals map[string]interface{}
}

// NewDoc returns an empty ordered document.
func NewDoc() *Doc {
	return &Doc{vals: make(map[string]interface{})}
}

// Len returns the number of keys.
func (d *Doc) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order. The slice is shared; callers
// must not modify it.
func (d *Doc) Keys() []string { return d.keys }

// Get returns the value stored under key.
func (d *Doc) Get(key string) (interface{}, bool) {
	v, ok := d.vals[key]
	return v, ok
}

// GetDoc returns the nested document under key, or nil when the key is
// absent or holds a non-object value.
func (d *Doc) GetDoc(key string) *Doc {
	if sub, ok := d.vals[key].(*Doc); ok {
		return sub
	}
	return nil
}

// Set stores a value, appending the key to the order when it is new.
func (d *Doc) Set(key string, value interface{}) {
	if _, exists := d.vals[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = value
}

// Merge deep-merges other into d: object values merge recursively, any other
// value overwrites. New keys keep their order of first appearance.
func (d *Doc) Merge(other *Doc) {
	for _, key := range other.keys {
		incoming := other.vals[key]
		if sub, ok := incoming.(*Doc); ok {
			if existing := d.GetDoc(key); existing != nil {
				existing.Merge(sub)
				continue
			}
		}
		d.Set(key, incoming)
	}
}

// MarshalJSON writes the object with keys in insertion order.
func (d *Doc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, errors.Wrapf(err, "marshaling key %q", key)
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(d.vals[key])
		if err != nil {
			return nil, errors.Wrapf(err, "marshaling value of %q", key)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object token by token, recording key order.
func (d *Doc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "decoding document")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("document root must be a JSON object")
	}
	doc, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

// decodeObject consumes the members of an object whose opening brace has
// already been read.
func decodeObject(dec *json.Decoder) (*Doc, error) {
	doc := NewDoc()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "decoding object key")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Newf("unexpected object key token %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, value)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "decoding object end")
	}
	return doc, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "decoding value")
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		if num, isNum := tok.(json.Number); isNum {
			f, err := num.Float64()
			if err != nil {
				return nil, errors.Wrapf(err, "parsing number %s", num)
			}
			return f, nil
		}
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		arr := make([]interface{}, 0)
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, errors.Wrap(err, "decoding array end")
		}
		return arr, nil
	default:
		return nil, errors.Newf("unexpected delimiter %v", delim)
	}
}

// Plain converts the document to ordinary nested maps, losing key order.
// Useful for handing values to order-agnostic consumers.
func (d *Doc) Plain() map[string]interface{} {
	out := make(map[string]interface{}, len(d.keys))
	for _, key := range d.keys {
		switch v := d.vals[key].(type) {
		case *Doc:
			out[key] = v.Plain()
		default:
			out[key] = v
		}
	}
	return out
}
