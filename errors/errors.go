package errors

import "fmt"

var (
	// ErrValidation covers malformed send requests. Upload rejections
	// wrap it so callers can treat them as one family.
	ErrValidation          = fmt.Errorf("invalid request")
	ErrUploadTooLarge      = fmt.Errorf("%w: file too large", ErrValidation)
	ErrUploadForbiddenType = fmt.Errorf("%w: file extension not allowed", ErrValidation)

	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrAttachmentNotFound = fmt.Errorf("attachment not found")
	ErrProfileNotFound    = fmt.Errorf("profile not found")

	// ErrNotAuthenticated means no session at all; ErrNotAuthorized means
	// a session that claims somebody else's identity. The distinction is
	// kept because channel subscriptions answer them differently.
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNotAuthorized    = fmt.Errorf("unauthorized")

	// ErrStorage marks blob-store failures. They are logged and downgraded
	// to best-effort continuation, never aborting the owning operation.
	ErrStorage = fmt.Errorf("blob storage failure")
)
