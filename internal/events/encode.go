package events

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
	"unicode/utf8"
)

const (
	MaxStackTraceLength = 2000
	truncatedMarker     = "\n\t... (truncated)"
)

// EncodeDetail renders the bus detail document for ev. Payload values keep
// their kind: strings quoted, numbers and booleans bare, nil as null, and
// anything else as its string form.
func EncodeDetail(ev Event, at time.Time) (string, error) {
	env := Detail{
		TenantID:     ev.TenantID,
		ResourceID:   ev.ResourceID,
		ResourceType: ev.ResourceType,
		Timestamp:    at.UTC().Format(time.RFC3339Nano),
		Payload:      NormalizePayload(ev.Payload),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NormalizePayload maps payload values onto JSON scalar kinds.
func NormalizePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue keeps a value's text form when it defines one. Otherwise
// named scalar types collapse onto their underlying kind.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return x
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float())
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(v)
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return f
}

// TruncateTrace caps s at MaxStackTraceLength bytes, cutting on a rune
// boundary and appending a marker when anything was dropped.
func TruncateTrace(s string) string {
	if len(s) <= MaxStackTraceLength {
		return s
	}
	cut := MaxStackTraceLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMarker
}
