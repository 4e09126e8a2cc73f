package biz

import "errors"

// Object store errors
var (
	// ErrStoreUnavailable is returned by read paths when the bucket is missing or unreachable.
	ErrStoreUnavailable = errors.New("object store unavailable")
	// ErrStoreWrite wraps transport or auth failures on put and delete.
	ErrStoreWrite       = errors.New("object store write failed")
	ErrObjectNotFound   = errors.New("object not found")
)

// Validation errors, raised before any side effect
var (
	ErrInvalidTier          = errors.New("invalid cleanup tier")
	ErrInvalidGranularity   = errors.New("invalid granularity")
	ErrInvalidLimit         = errors.New("limit must be positive")
	ErrInvalidLogoVariant   = errors.New("logo variant must be light or dark")
	ErrInvalidLifecycleRule = errors.New("invalid lifecycle rule")
	ErrEmptyUpload          = errors.New("upload is empty")
)

var ErrCleanupInProgress = errors.New("cleanup already running for this trigger")

// Compression errors abort an upload before the store is touched
var (
	ErrImageDecode = errors.New("image decode failed")
	ErrImageEncode = errors.New("image encode failed")
)

// Catalog errors
var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrTenantNotFound  = errors.New("tenant not found")
)
