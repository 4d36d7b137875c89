package routes

import (
	"context"
	"net/http"

	"resource-locator/internal/config"
	"resource-locator/internal/handlers"
	"resource-locator/internal/middleware"
	"resource-locator/internal/notify"
	"resource-locator/internal/search"
	"resource-locator/internal/store"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators shared by the handlers.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Resources   *store.ResourceStore
	Submissions *store.SubmissionStore
	Search      *search.Service
	Notifier    *notify.Notifier
}

// NewRouter builds the engine with global middleware and every route.
// Background work owned by the middleware stops when ctx is cancelled.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORSMiddleware(d.Config.CORS.AllowOrigins))
	SetupRoutes(ctx, r, d)
	return r
}

func SetupRoutes(ctx context.Context, r *gin.Engine, d Deps) {
	resourceHandler := handlers.NewResourceHandler(d.Resources, d.Search, d.Notifier, d.Logger)
	submissionHandler := handlers.NewSubmissionHandler(d.Submissions, d.Config.Submissions.PageSize, d.Notifier, d.Logger)
	geocodeHandler := handlers.NewGeocodeHandler(d.Search, d.Logger)
	authHandler := handlers.NewAuthHandler(d.Config.Auth, d.Logger)
	adminHandler := handlers.NewAdminHandler(d.Resources, d.Submissions, d.Logger)

	r.GET("/ping", func(c *gin.Context) {
		utils.APIResponse(c, http.StatusOK, true, "Server OK!", nil)
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(ctx, d.Config.RateLimit))
	api.Use(middleware.Timeout(d.Config.RequestTimeout))
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/config", handlers.GetConfig(d.Config))

		// Public
		api.GET("/geocode", geocodeHandler.Geocode)
		api.GET("/resources/nearby", resourceHandler.NearbyResources)
		api.GET("/resources/search", resourceHandler.SearchResources)
		api.GET("/resources/:id", resourceHandler.GetResource)
		api.POST("/submit-data", submissionHandler.SubmitData)

		// Admin
		admin := api.Group("/")
		if d.Config.Auth.Enabled() {
			admin.Use(middleware.AuthMiddleware(d.Config.Auth.JWTSecret), middleware.AdminOnly())
		} else {
			d.Logger.Warn("Admin routes are unauthenticated; set JWT_SECRET and ADMIN_PASSWORD_HASH to protect them")
		}
		{
			admin.POST("/resources", resourceHandler.CreateResource)
			admin.PUT("/resources/:id", resourceHandler.UpdateResource)
			admin.GET("/submissions", submissionHandler.ListSubmissions)
			admin.DELETE("/submissions/:id", submissionHandler.DeleteSubmission)
			admin.GET("/admin/stats", adminHandler.GetDashboardStats)
		}
	}
}
