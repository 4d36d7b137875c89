package handlers

import (
	"net/http"

	"resource-locator/internal/apperror"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes err through the shared envelope. Server-side failures
// are logged with their cause, which never reaches the client.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error, notFound string) {
	_ = c.Error(err)
	if apperror.HTTPStatus(err) >= http.StatusInternalServerError {
		logger.Error(op+" failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	utils.ErrorResponse(c, err, notFound)
}

// badRequest reports a body or query that could not be bound.
func badRequest(c *gin.Context, err error) {
	utils.APIResponse(c, http.StatusBadRequest, false, "Invalid input", err.Error())
}
