package sdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrInvalidServerURL = errors.New("sdk: server url must start with http:// or https://")

	// ErrNotFound marks the benign race where a record vanished between a
	// catalog listing and the content fetch or delete.
	ErrNotFound = errors.New("sdk: image not found")
)

// APIError mirrors the server's error envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// handleAPIError is a helper that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", operation, ErrNotFound)
		}

		if apiErr, ok := resp.ErrorResult().(*APIError); ok && apiErr.Code != "" {
			return fmt.Errorf("%s: %w", operation, apiErr)
		}

		return fmt.Errorf("api error: %s: %s", operation, resp.Status)
	}

	return nil
}
