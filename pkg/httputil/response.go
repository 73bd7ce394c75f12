package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/emr-assistant/pkg/errors"
)

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   data,
	})
}

// RespondWithError sends an error response. Non-AppErrors become a 500
// without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	resp := ErrorResponse{Status: "error", Message: "internal server error"}

	if appErr, ok := errors.As(err); ok {
		statusCode = appErr.StatusCode()
		resp.Code = int(appErr.Code)
		resp.Message = appErr.Message
	}

	c.AbortWithStatusJSON(statusCode, resp)
}

// NewErrorResponse builds a bare error body with the given message.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message}
}
