package handlers

import (
	"net/http"

	"viswords-api/internal/config"

	"github.com/gin-gonic/gin"
)

// ConfigHandler exposes the settings a client needs to prepare uploads
type ConfigHandler struct {
	cfg *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// PublicConfig never carries SECRET_KEY or ARK_API_KEY
type PublicConfig struct {
	Model             string   `json:"model"`
	APIURL            string   `json:"api_url"`
	APIKeyConfigured  bool     `json:"api_key_configured"`
	MaxContentLength  int64    `json:"max_content_length"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

// @Summary Public configuration
// @Description Model and upload limits; secrets are never included
// @Tags system
// @Produce json
// @Success 200 {object} PublicConfig
// @Router /config [get]
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, PublicConfig{
		Model:             h.cfg.Ark.Model,
		APIURL:            h.cfg.Ark.APIURL,
		APIKeyConfigured:  h.cfg.Ark.APIKey != "" && h.cfg.Ark.APIKey != config.DefaultArkAPIKey,
		MaxContentLength:  h.cfg.Upload.MaxContentLength,
		AllowedExtensions: h.cfg.Upload.AllowedExtensions,
	})
}
