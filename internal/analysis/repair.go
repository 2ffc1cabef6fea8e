package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponse is returned when no JSON object can be recovered from model output.
type MalformedResponse struct {
	Reason string
	Err    error
}

func (e *MalformedResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponse) Unwrap() error {
	return e.Err
}

// Repair extracts the JSON object embedded in raw model output.
//
// The object is taken to span from the first '{' to the last '}', which tolerates
// markdown fences and surrounding prose. Stray braces in that prose are not
// guarded against.
func Repair(raw string) (map[string]any, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return nil, &MalformedResponse{Reason: "no JSON object found"}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, &MalformedResponse{Reason: "invalid JSON", Err: err}
	}
	return obj, nil
}
