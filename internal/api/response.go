package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx answer from the backend
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Response is the outcome of a request that reached the server. Callers
// branch on Status instead of on error types.
type Response struct {
	Status int
	URL    string
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Unauthorized reports a 401 status.
func (r *Response) Unauthorized() bool {
	return r.Status == http.StatusUnauthorized
}

// Err returns an *HTTPError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &HTTPError{StatusCode: r.Status, URL: r.URL}
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", r.URL, err)
	}
	return nil
}

// ServerMessage extracts the "message" field, if any.
func (r *Response) ServerMessage() string {
	var m MessageResponse
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return ""
	}
	return m.Message
}
