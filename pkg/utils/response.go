package utils

import (
	"resource-locator/internal/apperror"

	"github.com/gin-gonic/gin"
)

// Response is the envelope used for every non-resource payload.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func APIResponse(c *gin.Context, code int, success bool, message string, data interface{}) {
	c.JSON(code, Response{
		Success: success,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes err with the status and public message derived from
// its apperror kind. notFound is the message used for apperror.ErrNotFound.
func ErrorResponse(c *gin.Context, err error, notFound string) {
	APIResponse(c, apperror.HTTPStatus(err), false, apperror.PublicMessage(err, notFound), nil)
}
