package handlers

import (
	"net/http"

	"resource-locator/internal/config"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ClientConfig is the presentation configuration served to map clients.
type ClientConfig struct {
	DefaultCenter struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"defaultCenter"`
	Diagnoses   []string `json:"diagnoses"`
	PageSize    int      `json:"pageSize"`
	NearbyLimit int      `json:"nearbyLimit"`
}

// GetConfig handles GET /api/config.
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	var out ClientConfig
	out.DefaultCenter.Latitude = cfg.Map.DefaultLat
	out.DefaultCenter.Longitude = cfg.Map.DefaultLng
	out.Diagnoses = append([]string{}, cfg.Search.Diagnoses...)
	out.PageSize = cfg.Submissions.PageSize
	out.NearbyLimit = cfg.Search.NearbyLimit

	return func(c *gin.Context) {
		utils.APIResponse(c, http.StatusOK, true, "Client configuration", out)
	}
}
