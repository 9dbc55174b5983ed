package apiclient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any API response with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response. Message is the server's own text and is
// shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = "unexpected API response"
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// Message returns the text to show a user for err: the server's message
// for API errors, a generic line otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Something went wrong, please try again"
}
