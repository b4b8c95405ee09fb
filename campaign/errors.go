package campaign

import (
	"errors"

	"github.com/anyproto/ar-campaign-server/domain"
)

var ErrSubmissionInProgress = errors.New("campaign creation is already in progress")

const (
	MsgValidation = "Please fix the highlighted files and try again."
	MsgPermission = "Permission denied. Please check the storage and database access configuration."
	MsgUpload     = "File upload failed. Please check your internet connection and file sizes, then try again."
	MsgDuplicate  = "Campaign ID conflict. Please try again."
	MsgDatabase   = "Database error. Please try again later."
	MsgInProgress = "Your campaign is still being created. Please wait until it finishes."
	MsgGeneric    = "Failed to create campaign. Please try again."
)

// Summary returns the message shown to the user for a failed submission
func Summary(err error) string {
	var (
		vErr   *domain.ValidationError
		upErr  *domain.UploadError
		urlErr *domain.UrlResolutionError
		dbErr  *domain.PersistenceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return MsgValidation
	case errors.Is(err, ErrSubmissionInProgress):
		return MsgInProgress
	case errors.Is(err, domain.ErrPermissionDenied):
		return MsgPermission
	case errors.As(err, &upErr), errors.As(err, &urlErr):
		return MsgUpload
	case errors.As(err, &dbErr):
		if errors.Is(err, domain.ErrDuplicateKey) {
			return MsgDuplicate
		}
		return MsgDatabase
	}
	return MsgGeneric
}
