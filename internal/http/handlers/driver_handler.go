// README: Driver-facing handlers: pending queue, lifecycle actions, toggle,
// stats, and vehicle position reports.
package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/geo"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/http/middleware"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/driver"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

type DriverHandler struct {
	rides     *ride.Service
	drivers   *driver.Service
	locations *location.Service
}

func NewDriverHandler(rides *ride.Service, drivers *driver.Service, locations *location.Service) *DriverHandler {
	return &DriverHandler{rides: rides, drivers: drivers, locations: locations}
}

// profile resolves the driver behind the session, or writes the error.
func (h *DriverHandler) profile(c *gin.Context) (*driver.Driver, bool) {
	sess, _ := middleware.Session(c)
	d, err := h.drivers.ByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		writeDriverError(c, err)
		return nil, false
	}
	return d, true
}

// position returns where the driver's vehicle last reported itself, falling
// back to the campus center so distance ordering still works.
func (h *DriverHandler) position(c *gin.Context, d *driver.Driver) types.Point {
	if v, err := h.drivers.Vehicle(c.Request.Context(), d.VehicleID); err == nil && v.Position != nil {
		return *v.Position
	}
	return h.locations.CampusCenter()
}

// PendingRides lists unassigned requests nearest-first from the driver's
// current position.
func (h *DriverHandler) PendingRides(c *gin.Context) {
	d, ok := h.profile(c)
	if !ok {
		return
	}
	pending, err := h.rides.PendingUnassigned(c.Request.Context(), intQuery(c, "limit", 10))
	if err != nil {
		writeRideError(c, err)
		return
	}

	pos := h.position(c, d)
	type entry struct {
		view gin.H
		km   float64
	}
	entries := make([]entry, len(pending))
	for i, r := range pending {
		km := geo.DistanceKm(pos, r.Pickup)
		v := rideView(r)
		v["pickup_distance_km"] = km
		v["pickup_distance"] = geo.FormatDistance(&km)
		v["match_score"] = matching.Score(km)
		entries[i] = entry{view: v, km: km}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].km < entries[j].km })

	out := make([]gin.H, len(entries))
	for i, e := range entries {
		out[i] = e.view
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": out})
}

func (h *DriverHandler) Accept(c *gin.Context) {
	sess, _ := middleware.Session(c)
	d, ok := h.profile(c)
	if !ok {
		return
	}
	rideID := types.ID(c.Param("id"))
	r, err := h.rides.Get(c.Request.Context(), rideID)
	if err != nil {
		writeRideError(c, err)
		return
	}
	km := geo.DistanceKm(h.position(c, d), r.Pickup)

	err = h.rides.Accept(c.Request.Context(), ride.AcceptCommand{
		Session:    sess,
		RideID:     rideID,
		DriverID:   d.ID,
		VehicleID:  d.VehicleID,
		DistanceKm: km,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": ride.StatusAccepted})
}

func (h *DriverHandler) Arrive(c *gin.Context) {
	h.transition(c, func(sess driverAction) error {
		return h.rides.Arrive(c.Request.Context(), ride.ArriveCommand(sess))
	}, ride.StatusArriving)
}

func (h *DriverHandler) Start(c *gin.Context) {
	h.transition(c, func(sess driverAction) error {
		return h.rides.Start(c.Request.Context(), ride.StartCommand(sess))
	}, ride.StatusInProgress)
}

func (h *DriverHandler) Complete(c *gin.Context) {
	h.transition(c, func(sess driverAction) error {
		return h.rides.Complete(c.Request.Context(), ride.CompleteCommand(sess))
	}, ride.StatusCompleted)
}

type driverAction = ride.ArriveCommand

func (h *DriverHandler) transition(c *gin.Context, run func(driverAction) error, next ride.Status) {
	sess, _ := middleware.Session(c)
	d, ok := h.profile(c)
	if !ok {
		return
	}
	err := run(driverAction{
		Session:  sess,
		RideID:   types.ID(c.Param("id")),
		DriverID: d.ID,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": next})
}

func (h *DriverHandler) ActiveRide(c *gin.Context) {
	d, ok := h.profile(c)
	if !ok {
		return
	}
	r, err := h.rides.ActiveForDriver(c.Request.Context(), d.ID)
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

func (h *DriverHandler) ToggleAvailability(c *gin.Context) {
	sess, _ := middleware.Session(c)
	d, err := h.drivers.ToggleAvailability(c.Request.Context(), sess)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": d.ID, "status": d.Status})
}

func (h *DriverHandler) Stats(c *gin.Context) {
	sess, _ := middleware.Session(c)
	st, err := h.drivers.Stats(c.Request.Context(), sess)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}

type positionReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DriverHandler) UpdatePosition(c *gin.Context) {
	sess, _ := middleware.Session(c)
	var req positionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.drivers.UpdatePosition(c.Request.Context(), sess, types.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeDriverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
