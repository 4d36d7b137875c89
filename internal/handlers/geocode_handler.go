package handlers

import (
	"net/http"

	"resource-locator/internal/search"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GeocodeHandler struct {
	search *search.Service
	logger *zap.Logger
}

func NewGeocodeHandler(svc *search.Service, logger *zap.Logger) *GeocodeHandler {
	return &GeocodeHandler{search: svc, logger: logger}
}

// Geocode handles GET /api/geocode?address= and relays the provider payload
// unchanged.
func (h *GeocodeHandler) Geocode(c *gin.Context) {
	res, err := h.search.Geocode(c.Request.Context(), c.Query("address"))
	if err != nil {
		respondError(c, h.logger, "geocode", err, "No results found for this address")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Raw)
}
