// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"math"
)

// Record is one raw study object as decoded from the registry JSON. Only
// the paths read by ExtractTrial and the completion-date filter matter; any
// missing or mistyped node reads as the zero value.
type Record map[string]any

// Get walks path through nested objects and returns the value found there,
// or nil when any step is missing or not an object.
func (r Record) Get(path ...string) any {
	var cur any = map[string]any(r)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// String returns the string at path, or "".
func (r Record) String(path ...string) string {
	s, _ := r.Get(path...).(string)
	return s
}

// Int returns the number at path truncated to an int, or 0.
func (r Record) Int(path ...string) int {
	switch v := r.Get(path...).(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}

// Map returns the object at path, or an empty Record.
func (r Record) Map(path ...string) Record {
	m, ok := asMap(r.Get(path...))
	if !ok {
		return Record{}
	}
	return Record(m)
}

// Strings returns the string elements of the array at path. Non-string
// elements are skipped.
func (r Record) Strings(path ...string) []string {
	arr, _ := r.Get(path...).([]any)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Records returns the object elements of the array at path. Non-object
// elements are skipped.
func (r Record) Records(path ...string) []Record {
	arr, _ := r.Get(path...).([]any)
	out := make([]Record, 0, len(arr))
	for _, v := range arr {
		if m, ok := asMap(v); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Empty reports whether the record has no keys.
func (r Record) Empty() bool {
	return len(r) == 0
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}
