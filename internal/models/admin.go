package models

// LoginInput is the admin login body.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Resources           int64 `json:"resources"`
	ResourcesUnlocated  int64 `json:"resources_without_coordinates"`
	Submissions         int64 `json:"submissions"`
	SubmissionsLastWeek int64 `json:"submissions_last_week"`
}
