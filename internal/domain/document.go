package domain

import "encoding/json"

// Document is the loosely structured property bag a stored record carries.
// Accessors return a typed value plus an ok flag instead of panicking or
// defaulting silently; callers decide whether a missing field drops the row
// or substitutes a default.
type Document map[string]any

// Text returns the value under key when it is a string.
func (d Document) Text(key string) (string, bool) {
	value, exists := d[key]
	if !exists {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Number returns the value under key coerced to float64. JSON decoding
// yields float64 for all numbers, but ingestion and tests may hold native
// ints, so those are accepted too.
func (d Document) Number(key string) (float64, bool) {
	value, exists := d[key]
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Copy returns a shallow copy so derived views never mutate the source.
func (d Document) Copy() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// AsJSONB marshals the document for storage.
func (d Document) AsJSONB() (json.RawMessage, error) {
	if d == nil {
		return json.Marshal(Document{})
	}
	return json.Marshal(d)
}

// FromJSONB decodes a stored properties column back into a document.
func FromJSONB(raw json.RawMessage) (Document, error) {
	var doc Document
	err := json.Unmarshal(raw, &doc)
	return doc, err
}
