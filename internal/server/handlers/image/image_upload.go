package image

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/urpagin/wallsync/internal/server/handlers/api"
	"github.com/urpagin/wallsync/internal/server/store"
	"github.com/urpagin/wallsync/internal/utils"
)

const maxFilenameLength = 255

// headroom for multipart framing around the image bytes
const multipartOverhead = 4 << 10

// Upload accepts a multipart form with an `image` field and creates a new
// record. Not idempotent: every call mints a new id, so a retried upload
// can create a harmless duplicate of the same content.
func (h *ImageHandler) Upload(ctx *gin.Context) {
	bodyLimit := h.maxUploadBytes + multipartOverhead

	// refuse or cut off oversize bodies before they get buffered
	if ctx.Request.ContentLength > bodyLimit {
		api.AbortWithError(ctx, http.StatusRequestEntityTooLarge, api.CodeImageTooLarge,
			fmt.Errorf("content length %d exceeds limit %d", ctx.Request.ContentLength, h.maxUploadBytes))
		return
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, bodyLimit)

	file, err := ctx.FormFile("image")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
			api.AbortWithError(ctx, http.StatusRequestEntityTooLarge, api.CodeImageTooLarge, err)
			return
		}
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid form: %w", err))
		return
	}

	if file.Filename == "" || len(file.Filename) > maxFilenameLength {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, errors.New("invalid filename"))
		return
	}

	if !utils.IsImageFilename(file.Filename) {
		api.AbortWithError(ctx, http.StatusUnsupportedMediaType, api.CodeImageInvalid,
			fmt.Errorf("unsupported image type: %s", file.Filename))
		return
	}

	if file.Size <= 0 {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, errors.New("empty file"))
		return
	}

	if file.Size > h.maxUploadBytes {
		api.AbortWithError(ctx, http.StatusRequestEntityTooLarge, api.CodeImageTooLarge,
			fmt.Errorf("file size %d exceeds limit %d", file.Size, h.maxUploadBytes))
		return
	}

	fd, err := file.Open()
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid file: %w", err))
		return
	}
	defer fd.Close()

	rec, err := h.store.Put(ctx.Request.Context(), file.Filename, fd)
	if err != nil {
		if errors.Is(err, store.ErrStorageFull) {
			api.AbortWithError(ctx, http.StatusInsufficientStorage, api.CodeStorageFull, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeImagePutFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, rec)
}
