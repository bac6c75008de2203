package image

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urpagin/wallsync/internal/server/handlers/api"
	"github.com/urpagin/wallsync/internal/server/store"
)

// Delete removes one record. Deleting an already-deleted id returns 404.
func (h *ImageHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.store.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.AbortWithError(ctx, http.StatusNotFound, api.CodeImageNotFound, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeImageDeleteFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &DeleteResponse{Deleted: id})
}
