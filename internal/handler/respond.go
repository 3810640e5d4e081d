package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
)

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Success    bool                   `json:"success"`
	Data       any                    `json:"data,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Count      *int                   `json:"count,omitempty"`
	Pagination *repository.Pagination `json:"pagination,omitempty"`
}

// respond writes a success envelope with data.
func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// respondList writes a success envelope with count and pagination.
func respondList(c echo.Context, data any, count int, p repository.Pagination) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Count: &count, Pagination: &p})
}

// respondCount writes a success envelope with count but no pagination
// (unpaginated list endpoints).
func respondCount(c echo.Context, data any, count int) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

// respondErr is the single place a typed error becomes an HTTP
// response. Unexpected errors are logged with their cause; the client
// only ever sees the stable taxonomy message.
func respondErr(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindAuthentication:
		status = http.StatusUnauthorized
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		log.Printf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(status, envelope{Success: false, Message: apperr.Message(err)})
}
