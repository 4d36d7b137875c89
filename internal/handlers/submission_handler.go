package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"resource-locator/internal/apperror"
	"resource-locator/internal/models"
	"resource-locator/internal/notify"
	"resource-locator/internal/store"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const submissionNotFound = "Submission not found"

type SubmissionHandler struct {
	submissions *store.SubmissionStore
	pageSize    int
	notifier    *notify.Notifier
	logger      *zap.Logger
}

func NewSubmissionHandler(submissions *store.SubmissionStore, pageSize int, notifier *notify.Notifier, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, pageSize: pageSize, notifier: notifier, logger: logger}
}

// SubmitData handles POST /api/submit-data from the public contact form.
func (h *SubmissionHandler) SubmitData(c *gin.Context) {
	var input models.SubmissionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.submissions.Create(c.Request.Context(), input.Name, input.Email, input.Message)
	if err != nil {
		respondError(c, h.logger, "create submission", err, submissionNotFound)
		return
	}

	h.notifier.Emit(c.Request.Context(), notify.NewEvent(notify.SubmissionCreated, strconv.FormatUint(id, 10), map[string]string{
		"name":  input.Name,
		"email": input.Email,
	}))
	c.JSON(http.StatusOK, gin.H{"message": "Success"})
}

// ListSubmissions handles GET /api/submissions.
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	page, err := utils.ParsePositiveInt(c.Query("page"), 1)
	if err != nil {
		respondError(c, h.logger, "list submissions", fmt.Errorf("%w: page must be a positive integer", apperror.ErrInvalidInput), submissionNotFound)
		return
	}
	limit, err := utils.ParsePositiveInt(c.Query("limit"), h.pageSize)
	if err != nil {
		respondError(c, h.logger, "list submissions", fmt.Errorf("%w: limit must be a positive integer", apperror.ErrInvalidInput), submissionNotFound)
		return
	}

	query := store.SubmissionQuery{
		Page:       page,
		PageSize:   limit,
		Search:     c.Query("search"),
		DateFilter: store.DateFilter(c.Query("dateFilter")),
		SortBy:     store.SortField(c.Query("sortBy")),
		SortOrder:  c.Query("sortOrder"),
	}

	items, total, err := h.submissions.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.logger, "list submissions", err, submissionNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       items,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// DeleteSubmission handles DELETE /api/submissions/:id.
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	id := utils.StringToUint64(c.Param("id"))
	if id == 0 {
		utils.APIResponse(c, http.StatusNotFound, false, submissionNotFound, nil)
		return
	}

	if err := h.submissions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "delete submission", err, submissionNotFound)
		return
	}

	h.notifier.Emit(c.Request.Context(), notify.NewEvent(notify.SubmissionDeleted, c.Param("id"), nil))
	c.JSON(http.StatusOK, gin.H{"message": "Submission deleted"})
}
