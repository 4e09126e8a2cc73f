package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/dealer-backend/internal/pkg/errors"
)

// Response is the envelope every API handler writes
type Response struct {
	Code    int    `json:"code"` // 0 on success, business code otherwise
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// Success writes a 200 envelope
func Success(c *gin.Context, data any) {
	write(c, http.StatusOK, apperrors.Success, "", data)
}

// Created writes a 201 envelope
func Created(c *gin.Context, data any) {
	write(c, http.StatusCreated, apperrors.Success, "", data)
}

// Accepted writes a 202 envelope with a message, used for "nothing to do" results
func Accepted(c *gin.Context, message string, data any) {
	write(c, http.StatusAccepted, apperrors.Success, message, data)
}

// BadRequest writes a 400 with the generic bad request code
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, apperrors.ErrBadRequest, message)
}

// Unauthorized writes a 401
func Unauthorized(c *gin.Context, message string) {
	ErrorWithCode(c, apperrors.ErrUnauthorized, message)
}

// HandleError renders err using its AppError code, or 500 when it has none
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code := apperrors.ExtractCode(err)
	write(c, apperrors.GetHTTPStatus(code), code, apperrors.FormatError(code, apperrors.GetDetails(err)), nil)
}

// ErrorWithCode renders a business error code
func ErrorWithCode(c *gin.Context, code int, details ...string) {
	write(c, apperrors.GetHTTPStatus(code), code, apperrors.FormatError(code, details...), nil)
}

func write(c *gin.Context, status, code int, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}
