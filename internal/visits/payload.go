package visits

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// Payload is a beacon before normalisation. JSON bodies carry numbers, pixel
// query fallbacks carry strings; accessors coerce both the same way.
type Payload map[string]any

// ParseJSONPayload decodes a JSON object. An empty body is an empty payload.
func ParseJSONPayload(data []byte) (Payload, error) {
	payload := Payload{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

// PayloadFromValues uses each key's first value as a string field.
func PayloadFromValues(values url.Values) Payload {
	payload := make(Payload, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			payload[key] = vals[0]
		}
	}
	return payload
}

// Has reports whether key is present with a non-null value.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the trimmed string form of key, "" when absent.
func (p Payload) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Int returns the integer form of key, 0 when absent or not numeric.
func (p Payload) Int(key string) int {
	v, ok := p[key]
	if !ok || v == nil {
		return 0
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0
	}
	return n
}
