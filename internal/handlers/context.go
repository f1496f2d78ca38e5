package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pro-connect/backend/internal/middleware"
	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/pkg/apperrors"
)

// getUserIDFromContext returns the authenticated user's id, 0 when the route
// was mounted without the JWT middleware.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.ContextUserKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// httpError converts a service error into the response the client sees.
// Errors without a code are internal and keep their chain for the log.
func httpError(err error) *echo.HTTPError {
	var app *apperrors.AppError
	if errors.As(err, &app) {
		return echo.NewHTTPError(apperrors.HTTPStatus(err), app.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
