package scholarline_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNoStaffAvailable = errors.New("no staff available")
	ErrUploadFailed     = errors.New("upload failed")
	ErrSendFailed       = errors.New("send failed")
	ErrFetchFailed      = errors.New("fetch failed")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
