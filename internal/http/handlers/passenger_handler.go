// README: Passenger-facing handlers: request, track, cancel, history, stops.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/http/middleware"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type PassengerHandler struct {
	rides     *ride.Service
	locations *location.Service
}

func NewPassengerHandler(rides *ride.Service, locations *location.Service) *PassengerHandler {
	return &PassengerHandler{rides: rides, locations: locations}
}

type placeReq struct {
	LocationID string   `json:"location_id"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Address    string   `json:"address"`
}

type requestRideReq struct {
	Pickup  placeReq `json:"pickup"`
	Dropoff placeReq `json:"dropoff"`
}

// resolvePlace turns a request place into a concrete one. A named stop wins
// over raw coordinates; raw coordinates win over nothing.
func (h *PassengerHandler) resolvePlace(c *gin.Context, p placeReq) (ride.Place, bool) {
	if p.LocationID != "" {
		loc, err := h.locations.Get(c.Request.Context(), types.ID(p.LocationID))
		if err != nil {
			writeLocationError(c, err)
			return ride.Place{}, false
		}
		id := loc.ID
		return ride.Place{LocationID: &id, Position: loc.Position, Address: loc.Name}, true
	}
	if p.Lat == nil || p.Lng == nil {
		writeError(c, http.StatusBadRequest, "either location_id or lat/lng is required")
		return ride.Place{}, false
	}
	return ride.Place{Position: types.Point{Lat: *p.Lat, Lng: *p.Lng}, Address: p.Address}, true
}

func (h *PassengerHandler) RequestRide(c *gin.Context) {
	sess, _ := middleware.Session(c)
	var req requestRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup, ok := h.resolvePlace(c, req.Pickup)
	if !ok {
		return
	}
	dropoff, ok := h.resolvePlace(c, req.Dropoff)
	if !ok {
		return
	}

	r, outcome, err := h.rides.Request(c.Request.Context(), ride.RequestCommand{
		Session: sess,
		Pickup:  pickup,
		Dropoff: dropoff,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	resp := gin.H{"ride": rideView(r)}
	if outcome != nil {
		resp["allocation"] = gin.H{"success": outcome.Success, "driver_name": outcome.DriverName}
	}
	writeJSON(c, http.StatusCreated, resp)
}

func (h *PassengerHandler) GetRide(c *gin.Context) {
	sess, _ := middleware.Session(c)
	r, err := h.rides.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	if sess.Role == auth.RolePassenger && r.PassengerID != sess.UserID {
		writeError(c, http.StatusForbidden, "not your ride")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ride": rideView(r)})
}

func (h *PassengerHandler) Cancel(c *gin.Context) {
	sess, _ := middleware.Session(c)
	err := h.rides.Cancel(c.Request.Context(), ride.CancelCommand{
		Session: sess,
		RideID:  types.ID(c.Param("id")),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": ride.StatusCancelled})
}

func (h *PassengerHandler) Active(c *gin.Context) {
	sess, _ := middleware.Session(c)
	r, err := h.rides.ActiveForPassenger(c.Request.Context(), sess.UserID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	if r == nil {
		writeJSON(c, http.StatusOK, gin.H{"ride": nil})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ride": rideView(r)})
}

func (h *PassengerHandler) History(c *gin.Context) {
	sess, _ := middleware.Session(c)
	limit := intQuery(c, "limit", 20)
	rs, err := h.rides.History(c.Request.Context(), sess.UserID, limit)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": rideViews(rs)})
}

func (h *PassengerHandler) ListStops(c *gin.Context) {
	stops, err := h.locations.ListStops(c.Request.Context())
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"stops": stops})
}

func (h *PassengerHandler) NearestStop(c *gin.Context) {
	lat, latErr := floatQuery(c, "lat")
	lng, lngErr := floatQuery(c, "lng")
	var p *types.Point
	if latErr == nil && lngErr == nil {
		p = &types.Point{Lat: lat, Lng: lng}
	}
	stop, km, err := h.locations.NearestStop(c.Request.Context(), h.locations.Resolve(p))
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"stop": stop, "distance_km": km})
}
