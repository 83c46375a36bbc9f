// README: Shared handler utilities (JSON helpers, error mapping).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/driver"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRideError(c *gin.Context, err error) {
	switch err {
	case ride.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case ride.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case ride.ErrForbidden:
		writeError(c, http.StatusForbidden, err.Error())
	case ride.ErrInvalidState, ride.ErrActiveRide, ride.ErrConflict,
		ride.ErrDriverUnavailable, ride.ErrInFlight:
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeAuthError(c *gin.Context, err error) {
	switch err {
	case auth.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case auth.ErrEmailTaken:
		writeError(c, http.StatusConflict, err.Error())
	case auth.ErrInvalidCredentials, auth.ErrInvalidToken:
		writeError(c, http.StatusUnauthorized, err.Error())
	case auth.ErrUserNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDriverError(c *gin.Context, err error) {
	switch err {
	case driver.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case driver.ErrForbidden:
		writeError(c, http.StatusForbidden, err.Error())
	case driver.ErrActiveRide:
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatQuery(c *gin.Context, name string) (float64, error) {
	return strconv.ParseFloat(c.Query(name), 64)
}

func writeLocationError(c *gin.Context, err error) {
	if err == location.ErrNotFound {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, "internal error")
}
