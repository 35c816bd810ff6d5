package errors

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

var messageKeys = []string{"detail", "message", "error", "msg"}

// FromResponse drains resp.Body into an APIError carrying the best message the
// server offered. The caller still closes the body.
func FromResponse(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &APIError{Status: resp.StatusCode, Message: ExtractMessage(body, resp.StatusCode)}
}

// ExtractMessage picks a human readable message out of an error body. It understands
// {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"message"|"error"|"msg": "..."} and
// short plain text bodies, falling back to the status text.
func ExtractMessage(body []byte, status int) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range messageKeys {
			if msg := messageFrom(payload[key]); msg != "" {
				return msg
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") && !strings.HasPrefix(text, "{") {
		return text
	}

	if statusText := http.StatusText(status); statusText != "" {
		return statusText
	}
	return "request failed"
}

func messageFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"msg", "message"} {
			if msg := messageFrom(obj[key]); msg != "" {
				return msg
			}
		}
		return ""
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if msg := messageFrom(item); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
