package mission

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// requireString extracts a non-empty string from args by key.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// optionalString returns args[key] if it is a string, else "".
func optionalString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// optionalFloat64 extracts a float64 from args by key, returning the fallback if not present.
func optionalFloat64(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// stringSlice extracts a string array. Non-string entries are skipped.
// present reports whether the key was given at all.
func stringSlice(args map[string]any, key string) (out []string, present bool) {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil, false
	}
	out = []string{}
	for _, x := range raw {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// optionalDate parses an RFC3339 timestamp or a YYYY-MM-DD day.
func optionalDate(args map[string]any, key string) (*time.Time, error) {
	v := optionalString(args, key)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD, got %q", key, v)
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
