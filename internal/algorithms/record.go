package algorithms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// TagKey is the JSON key that discriminates algorithm records.
const TagKey = "algoType"

// Record is the persisted snapshot of an algorithm's parameters. It encodes
// as a flat JSON object: the tag under TagKey and one number per value.
type Record struct {
	Tag    string
	Values map[string]float64
}

// NewRecord creates an empty record for tag.
func NewRecord(tag string) *Record {
	return &Record{Tag: tag, Values: make(map[string]float64)}
}

// Float returns the value stored under key.
func (r *Record) Float(key string) (float64, bool) {
	if r == nil || r.Values == nil {
		return 0, false
	}
	v, ok := r.Values[key]
	return v, ok
}

func (r Record) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		if k == TagKey {
			return nil, fmt.Errorf("value key %q collides with the tag key", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	tag, err := json.Marshal(r.Tag)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"` + TagKey + `":`)
	buf.Write(tag)
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", k, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any flat object. Null values are treated as absent;
// non-numeric values are malformed.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: record is null", ErrMalformedState)
	}

	rec := Record{Values: make(map[string]float64, len(raw))}
	for k, v := range raw {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		if k == TagKey {
			if err := json.Unmarshal(v, &rec.Tag); err != nil {
				return fmt.Errorf("%w: tag: %v", ErrMalformedState, err)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("%w: value %q: %v", ErrMalformedState, k, err)
		}
		rec.Values[k] = f
	}

	*r = rec
	return nil
}
