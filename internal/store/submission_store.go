package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resource-locator/internal/apperror"
	"resource-locator/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxPageSize caps a single submissions page.
const MaxPageSize = 100

// SortField is a column submissions may be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByName      SortField = "name"
	SortByEmail     SortField = "email"
	SortByID        SortField = "id"
)

// sortColumns maps accepted sort fields to column identifiers. Caller text
// never reaches the ORDER BY clause.
var sortColumns = map[SortField]string{
	SortByCreatedAt: "created_at",
	SortByName:      "name",
	SortByEmail:     "email",
	SortByID:        "id",
}

// DateFilter restricts submissions by age relative to the store clock.
type DateFilter string

const (
	DateFilterNone      DateFilter = ""
	DateFilterToday     DateFilter = "today"
	DateFilterThisWeek  DateFilter = "thisWeek"
	DateFilterThisMonth DateFilter = "thisMonth"
)

// ParseDateFilter accepts the filter names used by both admin clients.
func ParseDateFilter(s string) (DateFilter, error) {
	switch strings.TrimSpace(s) {
	case "", "none", "all":
		return DateFilterNone, nil
	case "today":
		return DateFilterToday, nil
	case "thisWeek", "week":
		return DateFilterThisWeek, nil
	case "thisMonth", "month":
		return DateFilterThisMonth, nil
	}
	return "", fmt.Errorf("%w: unknown dateFilter %q", apperror.ErrInvalidInput, s)
}

// since returns the earliest created_at kept by f, or false for no bound.
func (f DateFilter) since(now time.Time) (time.Time, bool) {
	switch f {
	case DateFilterToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case DateFilterThisWeek:
		return now.AddDate(0, 0, -7), true
	case DateFilterThisMonth:
		return now.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}

// SubmissionQuery selects one page of submissions.
type SubmissionQuery struct {
	Page       int
	PageSize   int
	Search     string
	DateFilter DateFilter
	SortBy     SortField
	SortOrder  string // asc or desc
}

// SubmissionStore persists contact-form submissions.
type SubmissionStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSubmissionStore(db *gorm.DB) *SubmissionStore {
	return &SubmissionStore{db: db, now: time.Now}
}

// WithClock replaces the clock used for created_at and date filters.
func (s *SubmissionStore) WithClock(now func() time.Time) *SubmissionStore {
	s.now = now
	return s
}

// Create stores a submission stamped with the current time.
func (s *SubmissionStore) Create(ctx context.Context, name, email, message string) (uint64, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || strings.TrimSpace(message) == "" {
		return 0, fmt.Errorf("%w: name, email and message are required", apperror.ErrInvalidInput)
	}
	sub := models.Submission{
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return 0, storeErr("create submission", err)
	}
	return sub.ID, nil
}

// List returns one page of the filtered, sorted submissions and the size of
// the whole filtered set.
func (s *SubmissionStore) List(ctx context.Context, q SubmissionQuery) ([]models.Submission, int64, error) {
	if q.Page < 1 {
		return nil, 0, fmt.Errorf("%w: page must be 1 or greater", apperror.ErrInvalidInput)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return nil, 0, fmt.Errorf("%w: limit must be between 1 and %d", apperror.ErrInvalidInput, MaxPageSize)
	}
	filter, err := ParseDateFilter(string(q.DateFilter))
	if err != nil {
		return nil, 0, err
	}
	q.DateFilter = filter
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	column, ok := sortColumns[q.SortBy]
	if !ok {
		return nil, 0, fmt.Errorf("%w: cannot sort by %q", apperror.ErrInvalidInput, q.SortBy)
	}
	var desc bool
	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return nil, 0, fmt.Errorf("%w: sortOrder must be asc or desc", apperror.ErrInvalidInput)
	}

	filtered := s.filter(s.db.WithContext(ctx).Model(&models.Submission{}), q)

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, storeErr("count submissions", err)
	}

	items := []models.Submission{}
	err = filtered.Session(&gorm.Session{}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, storeErr("list submissions", err)
	}
	return items, total, nil
}

func (s *SubmissionStore) filter(db *gorm.DB, q SubmissionQuery) *gorm.DB {
	if needle := strings.TrimSpace(q.Search); needle != "" {
		pattern := "%" + escapeLike(strings.ToLower(needle)) + "%"
		db = db.Where(
			"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(message) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern,
		)
	}
	if since, ok := q.DateFilter.since(s.now()); ok {
		db = db.Where("created_at >= ?", since.UTC())
	}
	return db
}

// Delete removes the submission with id.
func (s *SubmissionStore) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if res.Error != nil {
		return storeErr("delete submission", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("submission %d: %w", id, apperror.ErrNotFound)
	}
	return nil
}

// CountSince returns the total number of submissions and those created in the
// trailing window.
func (s *SubmissionStore) CountSince(ctx context.Context, window time.Duration) (total, recent int64, err error) {
	db := s.db.WithContext(ctx).Model(&models.Submission{})
	if err = db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, storeErr("count submissions", err)
	}
	cutoff := s.now().Add(-window).UTC()
	if err = db.Session(&gorm.Session{}).Where("created_at >= ?", cutoff).Count(&recent).Error; err != nil {
		return 0, 0, storeErr("count recent submissions", err)
	}
	return total, recent, nil
}

// escapeLike escapes LIKE wildcards with '!' so the search text matches
// literally on every supported dialect.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
