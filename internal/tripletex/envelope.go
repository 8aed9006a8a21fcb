package tripletex

import (
	"bytes"
	"encoding/json"
)

// Unwrap strips the Tripletex response envelope.
// An object consisting of exactly the key 'value' unwraps to that value, an object carrying a 'values' key unwraps to
// that list; everything else (including already unwrapped payloads) is returned unchanged.
func Unwrap(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return raw
	}
	if value, ok := object["value"]; ok && len(object) == 1 {
		return value
	}
	if values, ok := object["values"]; ok {
		return values
	}
	return raw
}

// Response represents a normalized (unwrapped) Tripletex response
type Response struct {
	Raw       json.RawMessage
	Status    int
	RequestID string
}

// Empty reports whether the response carried no body
func (response *Response) Empty() bool {
	return len(bytes.TrimSpace(response.Raw)) == 0
}

// Decode decodes the normalized payload into target
func (response *Response) Decode(target any) error {
	if response.Empty() {
		return nil
	}
	return json.Unmarshal(response.Raw, target)
}
