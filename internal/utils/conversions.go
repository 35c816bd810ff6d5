package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FirstString returns the first alias present in m as a string. Numbers are formatted
// so ids sent as either 12 or "12" read the same.
func FirstString(m map[string]json.RawMessage, aliases ...string) string {
	for _, alias := range aliases {
		raw, ok := m[alias]
		if !ok || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// FirstFloat returns the first alias holding a number or a numeric string.
func FirstFloat(m map[string]json.RawMessage, aliases ...string) *float64 {
	for _, alias := range aliases {
		raw, ok := m[alias]
		if !ok || string(raw) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return Ptr(f)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return Ptr(f)
			}
		}
	}
	return nil
}

// FirstRaw returns the first alias present in m.
func FirstRaw(m map[string]json.RawMessage, aliases ...string) json.RawMessage {
	for _, alias := range aliases {
		if raw, ok := m[alias]; ok && string(raw) != "null" {
			return raw
		}
	}
	return nil
}
