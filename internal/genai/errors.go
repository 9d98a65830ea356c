package genai

import (
	"errors"
	"fmt"
)

// ErrorKind buckets gateway failures so the editor can show a distinct,
// actionable message per category. Classification never triggers a retry;
// a failed job waits for explicit user action.
type ErrorKind string

const (
	KindServer  ErrorKind = "server"
	KindNetwork ErrorKind = "network"
	KindAuth    ErrorKind = "auth"
	KindQuota   ErrorKind = "quota"
	KindEmpty   ErrorKind = "empty"
	KindOther   ErrorKind = "other"
)

// Error is a classified gateway failure. Error() yields the user-facing
// message; Detail keeps the underlying diagnostic for the logs.
type Error struct {
	Kind   ErrorKind
	Status int
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return "server busy or input too complex, retry"
	case KindNetwork:
		return "network error, check connection"
	case KindAuth:
		return "invalid or expired credential, reconnect"
	case KindQuota:
		return "rate limited, wait and retry"
	case KindEmpty:
		return "no output produced"
	default:
		if e.Detail != "" {
			return e.Detail
		}
		return "generation failed"
	}
}

// classifyStatus maps an HTTP status from the service into an Error.
func classifyStatus(status int, detail string) *Error {
	kind := KindOther
	switch {
	case status == 401 || status == 403:
		kind = KindAuth
	case status == 429:
		kind = KindQuota
	case status >= 500:
		kind = KindServer
	}
	if detail == "" {
		detail = fmt.Sprintf("gemini status %d", status)
	}
	return &Error{Kind: kind, Status: status, Detail: detail}
}

// KindOf extracts the classification from an error, defaulting to other.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
