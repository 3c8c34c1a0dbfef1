package exiftool

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Fields is one file's tag map as returned by `exiftool -G -j -n`.
type Fields map[string]any

// String returns the first present key rendered as a string.
func (f Fields) String(keys ...string) (string, bool) {
	for _, key := range keys {
		value, ok := f[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		default:
			return fmt.Sprintf("%v", v), true
		}
	}
	return "", false
}

// Float returns the first present key coerced to a float64.
func (f Fields) Float(keys ...string) (float64, bool) {
	for _, key := range keys {
		value, ok := f[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			return v, true
		case json.Number:
			if parsed, err := v.Float64(); err == nil {
				return parsed, true
			}
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func decodeReadResponse(raw []byte) (Fields, error) {
	var docs []Fields
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(docs) == 0 {
		return nil, errors.New("no metadata returned")
	}
	return docs[0], nil
}
