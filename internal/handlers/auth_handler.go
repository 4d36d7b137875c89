package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"resource-locator/internal/config"
	"resource-locator/internal/models"
	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	cfg    config.AuthConfig
	logger *zap.Logger
}

func NewAuthHandler(cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, logger: logger}
}

// Login handles POST /api/auth/login for the single configured operator.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput

	// 1. Validate input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.APIResponse(c, http.StatusBadRequest, false, "Invalid input", nil)
		return
	}

	if !h.cfg.Enabled() {
		utils.APIResponse(c, http.StatusNotFound, false, "Admin login is not configured", nil)
		return
	}

	// 2. Match the operator email
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(input.Email)),
		[]byte(strings.ToLower(h.cfg.AdminEmail)),
	) == 1

	// 3. Check the password; always hash to keep timing flat
	passwordOK := utils.CheckPassword(input.Password, h.cfg.AdminPasswordHash)
	if !emailOK || !passwordOK {
		h.logger.Warn("Admin login rejected", zap.String("ip", c.ClientIP()))
		utils.APIResponse(c, http.StatusUnauthorized, false, "Invalid email or password", nil)
		return
	}

	// 4. Issue the token
	token, err := utils.GenerateToken(h.cfg.JWTSecret, h.cfg.AdminEmail, utils.RoleAdmin, h.cfg.TokenTTL)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		utils.APIResponse(c, http.StatusInternalServerError, false, "Could not generate token", nil)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "Login successful", gin.H{
		"token":      token,
		"expires_in": int64(h.cfg.TokenTTL.Seconds()),
	})
}
