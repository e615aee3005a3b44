package client

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// providerError is the JSON body BoxNow returns on failures.
type providerError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// readProviderMessage drains a failed response and extracts its message.
// Bodies that are not JSON yield an empty message.
func readProviderMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return ""
	}

	var pe providerError
	if err := json.Unmarshal(body, &pe); err != nil {
		return ""
	}

	return strings.TrimSpace(pe.Message)
}

// statusError builds the taxonomy error for a non-200 response.
func statusError(kind parcel.Kind, resp *http.Response) *parcel.Error {
	return &parcel.Error{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    readProviderMessage(resp),
	}
}

// transportError wraps a failure that happened before a status was received.
func transportError(kind parcel.Kind, msg string, err error) *parcel.Error {
	return &parcel.Error{
		Kind:    kind,
		Message: msg,
		Err:     err,
	}
}
