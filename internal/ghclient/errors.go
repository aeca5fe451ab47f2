package ghclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/github"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrWriteConflict = errors.New("write conflict")
)

// RequestError is a non-success response from the remote API.
type RequestError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
}

// Is matches the status-class sentinels.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// WriteConflictError reports a file write rejected because the identity
// marker sent with it no longer matches the remote file.
type WriteConflictError struct {
	Path string
	SHA  string
	Err  *RequestError
}

func (e *WriteConflictError) Error() string {
	return fmt.Sprintf("write conflict on %s (sha %q): %v", e.Path, e.SHA, e.Err)
}

func (e *WriteConflictError) Is(target error) bool { return target == ErrWriteConflict }

func (e *WriteConflictError) Unwrap() error { return e.Err }

// wrapErr converts go-github errors into RequestError. Transport errors and
// context cancellation pass through wrapped with op.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var resp *http.Response
	var msg string

	var er *github.ErrorResponse
	var rl *github.RateLimitError
	var abuse *github.AbuseRateLimitError
	switch {
	case errors.As(err, &er):
		resp, msg = er.Response, er.Message
		if msg == "" && len(er.Errors) > 0 {
			msg = er.Errors[0].Message
		}
	case errors.As(err, &rl):
		resp, msg = rl.Response, rl.Message
	case errors.As(err, &abuse):
		resp, msg = abuse.Response, abuse.Message
	}
	if resp == nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &RequestError{Op: op, Status: resp.StatusCode, Message: msg}
}

// isConflict reports whether a failed contents write was rejected for a stale
// or missing sha.
func isConflict(re *RequestError) bool {
	switch re.Status {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(re.Message), "sha")
	}
	return false
}
