package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moa/backend/internal/interfaces/http/dto"
)

// SystemHandler handles service metadata endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. The version string is
// injected at build time; an empty value reports "dev".
func NewSystemHandler(version string) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		version:   version,
		startTime: time.Now(),
	}
}

// VersionResponse represents the version endpoint payload
// @name HandlerVersionResponse
type VersionResponse struct {
	Name      string `json:"name" example:"MOA Marketplace API"`
	Version   string `json:"version" example:"1.4.2"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Version godoc
// @ID           getVersion
// @Summary      Get service version
// @Description  Returns the service name, build version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[VersionResponse]
// @Router       /version [get]
func (h *SystemHandler) Version(c *gin.Context) {
	info := VersionResponse{
		Name:      "MOA Marketplace API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
