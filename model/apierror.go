package model

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// APIError is the client-side view of a backend failure. The backend answers
// with several body shapes: {"detail": "..."} on auth routes,
// {"detail": [{"loc": ..., "msg": ...}, ...]} on validation failures, and
// {"error": "..."} on a few legacy paths. All are probed here once; callers
// only ever see Message and Issues.
type APIError struct {
	StatusCode int
	Message    string
	Issues     []string
}

func (e *APIError) Error() string {
	if len(e.Issues) > 0 {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Issues, "; "))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports a terminal per-resource miss (insights treat these as
// non-retryable).
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

type validationIssue struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// ParseAPIError builds an APIError from a non-2xx response body, falling back
// to a generic message when the body isn't any shape we know.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}
	if len(body) == 0 {
		return apiErr
	}

	var probe struct {
		Detail interface{} `json:"detail"`
		Error  string      `json:"error"`
		Msg    string      `json:"msg"`
	}
	if err := sonic.Unmarshal(body, &probe); err != nil {
		return apiErr
	}

	switch d := probe.Detail.(type) {
	case string:
		if d != "" {
			apiErr.Message = d
		}
	case []interface{}:
		raw, _ := sonic.Marshal(d)
		var issues []validationIssue
		if err := sonic.Unmarshal(raw, &issues); err == nil {
			for _, iss := range issues {
				if iss.Msg == "" {
					continue
				}
				loc := make([]string, 0, len(iss.Loc))
				for _, l := range iss.Loc {
					loc = append(loc, fmt.Sprint(l))
				}
				if len(loc) > 0 {
					apiErr.Issues = append(apiErr.Issues, fmt.Sprintf("%s: %s", strings.Join(loc, "."), iss.Msg))
				} else {
					apiErr.Issues = append(apiErr.Issues, iss.Msg)
				}
			}
		}
		if len(apiErr.Issues) > 0 {
			apiErr.Message = "validation failed"
		}
	case map[string]interface{}:
		if msg, ok := d["msg"].(string); ok && msg != "" {
			apiErr.Message = msg
		} else if msg, ok := d["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}

	if probe.Error != "" {
		apiErr.Message = probe.Error
	} else if probe.Msg != "" && apiErr.Message == http.StatusText(statusCode) {
		apiErr.Message = probe.Msg
	}

	return apiErr
}
