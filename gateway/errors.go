package gateway

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const fallbackMessage = "Request failed"

// AuthError is returned for HTTP 401. The session has already been cleared
// when the caller sees it.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// RequestError is returned for any other non-success status, and for
// transport failures (Status 0).
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }

// errorMessage picks the human readable message out of an error payload:
// "detail" first, then "message", then the status text.
func errorMessage(body []byte, statusText string) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"detail", "message"} {
			if msg := messageFrom(gjson.GetBytes(body, field)); msg != "" {
				return msg
			}
		}
	}
	if statusText != "" {
		return statusText
	}
	return fallbackMessage
}

func messageFrom(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return strings.TrimSpace(v.String())
	case v.IsArray():
		// validation failures arrive as a list of {loc, msg} objects
		var parts []string
		for _, item := range v.Array() {
			if msg := item.Get("msg"); msg.Exists() {
				parts = append(parts, msg.String())
			} else if item.Type == gjson.String {
				parts = append(parts, item.String())
			}
		}
		return strings.Join(parts, "; ")
	case v.IsObject():
		return strings.TrimSpace(v.Get("msg").String())
	}
	return ""
}
