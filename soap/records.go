package soap

import (
	"encoding/json"
	"strings"
)

// DecodeRecords coerces a result payload into the sequence-of-records shape
// the rest of the service works with. The backing service is loose about
// this: a query may come back as a JSON array, as a single bare object, or
// as a plain string describing why there is no data. A single object is
// treated as a one-element sequence; a string becomes a ServiceError
// carrying its text. out must be a pointer to a slice.
func DecodeRecords(action, payload string, out any) error {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal([]byte(trimmed), out); err != nil {
			return &ServiceError{Action: action, Message: "response is not a record list: " + err.Error()}
		}
		return nil
	case '{':
		wrapped := "[" + trimmed + "]"
		if err := json.Unmarshal([]byte(wrapped), out); err != nil {
			return &ServiceError{Action: action, Message: "response is not a record: " + err.Error()}
		}
		return nil
	case '"':
		var msg string
		if err := json.Unmarshal([]byte(trimmed), &msg); err != nil {
			msg = trimmed
		}
		return &ServiceError{Action: action, Message: msg}
	default:
		return &ServiceError{Action: action, Message: trimmed}
	}
}
