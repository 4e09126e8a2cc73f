package errors

import (
	"fmt"
	"net/http"
)

// Code ties a business error code to an HTTP status and a message
type Code struct {
	Code    int
	Status  int
	Message string
}

const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Storage errors (6000-6999)
	ErrStorageUnavailable   = 6000
	ErrStorageWriteFailed   = 6001
	ErrStorageInvalidTier   = 6002
	ErrStorageInvalidRange  = 6003
	ErrStorageCleanupLocked = 6004
	ErrStorageImageDecode   = 6005
	ErrStorageImageEncode   = 6006
	ErrStorageObjectMissing = 6007
	ErrStorageOwnerNotFound = 6008
	ErrStorageFileTooLarge  = 6009
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrStorageUnavailable:   {ErrStorageUnavailable, http.StatusServiceUnavailable, "Object store unavailable"},
	ErrStorageWriteFailed:   {ErrStorageWriteFailed, http.StatusBadGateway, "Object store write failed"},
	ErrStorageInvalidTier:   {ErrStorageInvalidTier, http.StatusBadRequest, "Invalid cleanup target"},
	ErrStorageInvalidRange:  {ErrStorageInvalidRange, http.StatusBadRequest, "Invalid growth series parameters"},
	ErrStorageCleanupLocked: {ErrStorageCleanupLocked, http.StatusConflict, "Cleanup already running for this target"},
	ErrStorageImageDecode:   {ErrStorageImageDecode, http.StatusUnprocessableEntity, "Image could not be decoded"},
	ErrStorageImageEncode:   {ErrStorageImageEncode, http.StatusInternalServerError, "Image could not be encoded"},
	ErrStorageObjectMissing: {ErrStorageObjectMissing, http.StatusNotFound, "Object not found"},
	ErrStorageOwnerNotFound: {ErrStorageOwnerNotFound, http.StatusNotFound, "Vehicle or tenant not found"},
	ErrStorageFileTooLarge:  {ErrStorageFileTooLarge, http.StatusRequestEntityTooLarge, "Upload exceeds size limit"},
}

// GetCode returns the Code for a given error code, defaulting to internal error
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError reports whether code maps to a 4xx status
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
