package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// StatusError describes a non-2xx response. Message and Details come from the
// response body when it carries one of the known error envelopes:
//
//	{"error": "message", "details": "..."}
//	{"error": {"code": "...", "message": "...", "fields": {...}}}
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Fields     map[string]string
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("status %d: %s: %s", e.StatusCode, msg, e.Details)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, msg)
}

type flatEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Message string `json:"message"`
}

type nestedEnvelope struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx response into a StatusError.
// The caller should only invoke this when resp.StatusCode is not 2xx. The body
// is consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("status %d (failed to read body: %w)", resp.StatusCode, err)
	}

	se := &StatusError{StatusCode: resp.StatusCode, Body: body}

	var nested nestedEnvelope
	if json.Unmarshal(body, &nested) == nil && nested.Error != nil {
		se.Code = nested.Error.Code
		se.Message = nested.Error.Message
		se.Fields = nested.Error.Fields
		return se
	}

	var flat flatEnvelope
	if json.Unmarshal(body, &flat) == nil {
		se.Message = flat.Error
		if se.Message == "" {
			se.Message = flat.Message
		}
		se.Details = flat.Details
		return se
	}

	se.Message = strings.TrimSpace(string(body))
	return se
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
