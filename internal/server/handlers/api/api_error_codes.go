package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error

	// Image errors
	CodeImageNotFound     = "E_IMAGE_NOT_FOUND"     // the specified image could not be found.
	CodeImageInvalid      = "E_IMAGE_INVALID"       // the payload is not a supported image encoding.
	CodeImageTooLarge     = "E_IMAGE_TOO_LARGE"     // the payload exceeds the configured size ceiling.
	CodeImageListFailed   = "E_IMAGE_LIST_FAILED"   // a failure during the operation to list the catalog.
	CodeImagePutFailed    = "E_IMAGE_PUT_FAILED"    // a failure during the operation to persist an image.
	CodeImageDeleteFailed = "E_IMAGE_DELETE_FAILED" // a failure during the operation to delete an image.
	CodeStorageFull       = "E_STORAGE_FULL"        // the server's storage is out of space.
)
