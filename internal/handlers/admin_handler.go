package handlers

import (
	"net/http"
	"time"

	"resource-locator/internal/models"
	"resource-locator/internal/store"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	resources   *store.ResourceStore
	submissions *store.SubmissionStore
	logger      *zap.Logger
}

func NewAdminHandler(resources *store.ResourceStore, submissions *store.SubmissionStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{resources: resources, submissions: submissions, logger: logger}
}

// GetDashboardStats summarises the catalogue and the contact-form inbox.
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()

	// 1. Resources, and how many still need geocoding
	total, unlocated, err := h.resources.Count(ctx)
	if err != nil {
		respondError(c, h.logger, "dashboard stats", err, "")
		return
	}

	// 2. Submissions, overall and during the last week
	subs, lastWeek, err := h.submissions.CountSince(ctx, 7*24*time.Hour)
	if err != nil {
		respondError(c, h.logger, "dashboard stats", err, "")
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Dashboard stats", models.Stats{
		Resources:           total,
		ResourcesUnlocated:  unlocated,
		Submissions:         subs,
		SubmissionsLastWeek: lastWeek,
	})
}
