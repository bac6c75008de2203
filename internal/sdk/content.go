package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/urpagin/wallsync/internal/utils"
)

const v1Content = "/api/v1/content"

// Download streams one record's content to destPath. The write goes through
// the transport directly to the file; callers are expected to hand in a
// temp path and verify the digest before publishing it anywhere visible.
func (c *Client) Download(ctx context.Context, id string, destPath string) error {
	if err := utils.EnsureParent(destPath); err != nil {
		return fmt.Errorf("sdk: download %q: %w", id, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		SetOutputFile(destPath).
		Get(v1Content + "/" + url.PathEscape(id))

	if err != nil {
		os.Remove(destPath)
		return fmt.Errorf("http request error: content download %q: %w", id, err)
	}

	if resp.IsErrorState() {
		// the error body was dumped into destPath by SetOutputFile
		os.Remove(destPath)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("content download %q: %w", id, ErrNotFound)
		}
		return fmt.Errorf("api error: content download %q: %s", id, resp.Status)
	}

	return nil
}

// Upload creates a new record from a local file. Not idempotent (each call
// mints a new id), so it never auto-retries.
func (c *Client) Upload(ctx context.Context, filePath string) (*ImageRecord, error) {
	if !utils.FileExists(filePath) {
		return nil, fmt.Errorf("sdk: upload: %w", os.ErrNotExist)
	}

	var apiResp ImageRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetFile("image", filePath).
		SetSuccessResult(&apiResp).
		Post(v1Content)

	if err := handleAPIError(resp, err, "content upload"); err != nil {
		return nil, err
	}

	return &apiResp, nil
}

// Delete removes one record. A second delete of the same id returns
// ErrNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(v1Content + "/" + url.PathEscape(id))

	return handleAPIError(resp, err, fmt.Sprintf("content delete %q", id))
}
