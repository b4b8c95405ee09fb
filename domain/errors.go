package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDuplicateKey     = errors.New("duplicate key")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

type UploadError struct {
	Asset AssetKind
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s upload failed: %v", e.Asset, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UrlResolutionError is returned when the storage did not give a usable public url
// for an object it accepted.
type UrlResolutionError struct {
	Asset AssetKind
	Key   string
}

func (e *UrlResolutionError) Error() string {
	return fmt.Sprintf("failed to get public url for %s %q", e.Asset, e.Key)
}

type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "database error: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return "qr encoding failed: " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
