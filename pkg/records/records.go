// Package records reads and writes the JSON documents that carry image
// payloads: a single object mapping record keys to base64 strings.
//
// A [Set] keeps the order keys appeared in on input so that the output file
// lists results in the same order the batch processed them. Duplicate keys
// follow the usual JSON decoder rule (the last value wins) while keeping the
// position of the first occurrence.
//
// Documents are loaded and written wholesale; there is no streaming and no
// atomic replace of the output file.
package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/matzehuels/svg2png/pkg/errors"
)

// Record is a named image payload.
type Record struct {
	Key     string
	Payload string
}

// Set is an ordered collection of records with unique keys.
// A Set is not safe for concurrent use.
type Set struct {
	keys  []string
	index map[string]int
	vals  []string
}

// New returns an empty Set.
func New() *Set {
	return &Set{index: make(map[string]int)}
}

// FromMap builds a Set from m with keys in sorted order.
func FromMap(m map[string]string) *Set {
	s := New()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		s.Put(k, m[k])
	}
	return s
}

// Len returns the number of records.
func (s *Set) Len() int { return len(s.keys) }

// Keys returns the record keys in order. The slice is a copy.
func (s *Set) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Records returns the records in order.
func (s *Set) Records() []Record {
	out := make([]Record, len(s.keys))
	for i, k := range s.keys {
		out[i] = Record{Key: k, Payload: s.vals[i]}
	}
	return out
}

// Get returns the payload stored under key.
func (s *Set) Get(key string) (string, bool) {
	i, ok := s.index[key]
	if !ok {
		return "", false
	}
	return s.vals[i], true
}

// Put stores payload under key. A new key is appended; an existing key keeps
// its position.
func (s *Set) Put(key, payload string) {
	if i, ok := s.index[key]; ok {
		s.vals[i] = payload
		return
	}
	s.index[key] = len(s.keys)
	s.keys = append(s.keys, key)
	s.vals = append(s.vals, payload)
}

// Delete removes key, preserving the order of the remaining records.
func (s *Set) Delete(key string) {
	i, ok := s.index[key]
	if !ok {
		return
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	s.vals = append(s.vals[:i], s.vals[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	c := New()
	for i, k := range s.keys {
		c.Put(k, s.vals[i])
	}
	return c
}

// Map returns the records as a plain map.
func (s *Set) Map() map[string]string {
	m := make(map[string]string, len(s.keys))
	for i, k := range s.keys {
		m[k] = s.vals[i]
	}
	return m
}

// MarshalJSON encodes s as a JSON object in record order.
func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(s.vals[i])
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

// UnmarshalJSON decodes a JSON object of string values into s, replacing its
// contents.
func (s *Set) UnmarshalJSON(data []byte) error {
	decoded, err := decode(json.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// Read decodes a record document from r.
func Read(r io.Reader) (*Set, error) {
	return decode(json.NewDecoder(r))
}

// Load reads the record document at path.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Write encodes s to w as an indented JSON object (four spaces per level).
func Write(w io.Writer, s *Set) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode records")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "    "); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "indent records")
	}
	out.WriteByte('\n')
	if _, err := w.Write(out.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write records")
	}
	return nil
}

// Save writes s to path, creating or truncating the file.
func Save(path string, s *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", path)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "close %s", path)
	}
	return nil
}

func decode(dec *json.Decoder) (*Set, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document must be a JSON object")
	}

	s := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read key")
		}
		key := tok.(string)

		// A JSON null decodes into a nil pointer rather than failing.
		var payload *string
		if err := dec.Decode(&payload); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "value for key %q must be a string", key)
		}
		if payload == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "value for key %q must be a string, got null", key)
		}
		s.Put(key, *payload)
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document end")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unexpected data after document")
	}
	return s, nil
}
