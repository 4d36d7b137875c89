package handlers

import (
	"fmt"
	"net/http"

	"resource-locator/internal/apperror"
	"resource-locator/internal/models"
	"resource-locator/internal/notify"
	"resource-locator/internal/search"
	"resource-locator/internal/store"
	"resource-locator/pkg/geo"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const resourceNotFound = "Resource not found"

type ResourceHandler struct {
	resources *store.ResourceStore
	search    *search.Service
	notifier  *notify.Notifier
	logger    *zap.Logger
}

func NewResourceHandler(resources *store.ResourceStore, svc *search.Service, notifier *notify.Notifier, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{resources: resources, search: svc, notifier: notifier, logger: logger}
}

// CreateResource handles POST /api/resources.
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var input models.ResourceInput

	// 1. Bind the body
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 2. Persist
	res := input.ToResource()
	id, err := h.resources.Create(c.Request.Context(), res)
	if err != nil {
		respondError(c, h.logger, "create resource", err, resourceNotFound)
		return
	}

	// 3. Announce
	h.notifier.Emit(c.Request.Context(), notify.NewEvent(notify.ResourceCreated, id, map[string]string{"name": res.Name}))

	c.JSON(http.StatusOK, gin.H{
		"message": "Resource created successfully",
		"id":      id,
	})
}

// GetResource handles GET /api/resources/:id.
func (h *ResourceHandler) GetResource(c *gin.Context) {
	res, err := h.resources.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get resource", err, resourceNotFound)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateResource handles PUT /api/resources/:id. Every field is replaced.
func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	var input models.ResourceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	updated, err := h.resources.Update(c.Request.Context(), id, input.ToResource())
	if err != nil {
		respondError(c, h.logger, "update resource", err, resourceNotFound)
		return
	}

	h.notifier.Emit(c.Request.Context(), notify.NewEvent(notify.ResourceUpdated, id, map[string]string{"name": updated.Name}))
	c.JSON(http.StatusOK, updated)
}

// NearbyResources handles GET /api/resources/nearby?latitude=&longitude=.
func (h *ResourceHandler) NearbyResources(c *gin.Context) {
	lat, err := utils.ParseFloat(c.Query("latitude"))
	if err != nil {
		respondError(c, h.logger, "nearby resources", fmt.Errorf("%w: latitude must be a number", apperror.ErrInvalidInput), resourceNotFound)
		return
	}
	lng, err := utils.ParseFloat(c.Query("longitude"))
	if err != nil {
		respondError(c, h.logger, "nearby resources", fmt.Errorf("%w: longitude must be a number", apperror.ErrInvalidInput), resourceNotFound)
		return
	}

	results, err := h.search.Nearby(c.Request.Context(), geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		respondError(c, h.logger, "nearby resources", err, resourceNotFound)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchResources handles GET /api/resources/search.
//
//	q        comma-separated diagnosis tags, any of which must match
//	address  geocoded to the origin when present
//	lat, lon origin when no address is given
//	radius   meters
func (h *ResourceHandler) SearchResources(c *gin.Context) {
	query, err := parseSearchQuery(c)
	if err != nil {
		respondError(c, h.logger, "search resources", err, "No results found for this address")
		return
	}

	results, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.logger, "search resources", err, "No results found for this address")
		return
	}
	c.JSON(http.StatusOK, results)
}

func parseSearchQuery(c *gin.Context) (search.Query, error) {
	q := search.Query{
		Address: c.Query("address"),
		Tags:    search.SplitTags(c.Query("q")),
	}

	radius, err := utils.ParseFloat(c.Query("radius"))
	if err != nil {
		return q, fmt.Errorf("%w: radius must be a number of meters", apperror.ErrInvalidInput)
	}
	q.Radius = radius

	if q.Latitude, err = utils.ParseOptionalFloat(c.Query("lat")); err != nil {
		return q, fmt.Errorf("%w: lat must be a number", apperror.ErrInvalidInput)
	}
	if q.Longitude, err = utils.ParseOptionalFloat(c.Query("lon")); err != nil {
		return q, fmt.Errorf("%w: lon must be a number", apperror.ErrInvalidInput)
	}
	return q, nil
}
