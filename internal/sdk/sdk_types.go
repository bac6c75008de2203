package sdk

// ImageRecord is one entry of the server's catalog.
type ImageRecord struct {
	ID     string `json:"id"`
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

type CatalogResponse struct {
	Images []*ImageRecord `json:"images"`
}

type DeleteResponse struct {
	Deleted string `json:"deleted"`
}
