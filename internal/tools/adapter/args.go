package adapter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go-toolchat/pkg/models"
)

// String returns the first non-empty trimmed string stored under one of keys.
func String(args models.Args, keys ...string) string {
	for _, k := range keys {
		if s, ok := args[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// Number returns the first finite number stored under one of keys. Numeric
// strings are accepted since models often quote coordinates.
func Number(args models.Args, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := ToFloat(args[k]); ok {
			return f, true
		}
	}
	return 0, false
}

// JSONFloat accepts only values decoded from a JSON number. Quoted numbers
// are rejected.
func JSONFloat(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return ToFloat(v)
	default:
		return 0, false
	}
}

// ToFloat converts a decoded JSON value into a finite float64. Numeric
// strings are accepted.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
