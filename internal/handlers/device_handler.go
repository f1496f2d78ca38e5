package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
)

// DeviceHandler handles FCM device token registration
type DeviceHandler struct {
	deviceTokenRepository repositories.DeviceTokenRepository
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceTokenRepo repositories.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{deviceTokenRepository: deviceTokenRepo}
}

// RegisterDeviceRoutes registers device token routes
func (h *DeviceHandler) RegisterDeviceRoutes(g *echo.Group) {
	g.POST("/devices", h.RegisterDevice)
	g.DELETE("/devices", h.UnregisterDevice)
}

// RegisterDevice stores the caller's FCM token for push delivery
func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token := &models.DeviceToken{
		UserID:   currentUserID,
		Token:    req.Token,
		Platform: req.Platform,
	}

	if err := h.deviceTokenRepository.Upsert(token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// UnregisterDevice drops the caller's FCM token, used at logout
func (h *DeviceHandler) UnregisterDevice(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.deviceTokenRepository.DeleteTokensForUser(currentUserID, req.Token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
