package image

import "github.com/urpagin/wallsync/internal/server/store"

type CatalogResponse struct {
	Images []*store.ImageRecord `json:"images"`
}

type DeleteResponse struct {
	Deleted string `json:"deleted"`
}
