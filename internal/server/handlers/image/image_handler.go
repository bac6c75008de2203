package image

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urpagin/wallsync/internal/server/handlers/api"
	"github.com/urpagin/wallsync/internal/server/store"
	"github.com/urpagin/wallsync/internal/utils"
)

type ImageHandler struct {
	store          *store.Store
	maxUploadBytes int64
}

func New(s *store.Store, maxUploadBytes int64) *ImageHandler {
	return &ImageHandler{
		store:          s,
		maxUploadBytes: maxUploadBytes,
	}
}

// Catalog returns the server's full authoritative image set, produced fresh
// on every request.
func (h *ImageHandler) Catalog(ctx *gin.Context) {
	recs, err := h.store.List(ctx.Request.Context())
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeImageListFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &CatalogResponse{Images: recs})
}

// Content streams the raw bytes of one record.
func (h *ImageHandler) Content(ctx *gin.Context) {
	id := ctx.Param("id")

	r, rec, err := h.store.Open(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.AbortWithError(ctx, http.StatusNotFound, api.CodeImageNotFound, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError, err)
		return
	}
	defer r.Close()

	ctx.DataFromReader(http.StatusOK, rec.Size, utils.DetectContentType(rec.ID), r, nil)
}
