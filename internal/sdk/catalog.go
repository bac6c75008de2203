package sdk

import (
	"context"
)

const v1Catalog = "/api/v1/catalog"

// Catalog fetches the server's full authoritative image set.
func (c *Client) Catalog(ctx context.Context) ([]*ImageRecord, error) {
	var apiResp CatalogResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp).
		Get(v1Catalog)

	if err := handleAPIError(resp, err, "catalog list"); err != nil {
		return nil, err
	}

	return apiResp.Images, nil
}
