// README: HTTP router; route registration and middleware wiring.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/http/handlers"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/http/middleware"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/driver"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/notify"
)

type RouterDeps struct {
	Auth      *auth.Service
	Rides     *ride.Service
	Drivers   *driver.Service
	Locations *location.Service
	Matcher   *matching.Service
	Hub       *notify.Hub
	Log       *logrus.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log), middleware.Metrics())

	authHandler := handlers.NewAuthHandler(deps.Auth)
	passengerHandler := handlers.NewPassengerHandler(deps.Rides, deps.Locations)
	driverHandler := handlers.NewDriverHandler(deps.Rides, deps.Drivers, deps.Locations)
	feedHandler := handlers.NewFeedHandler(deps.Hub, deps.Log)
	vehicleHandler := handlers.NewVehicleHandler(deps.Matcher, deps.Locations)

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	api := r.Group("/api", middleware.Auth(deps.Auth))

	api.GET("/locations/stops", passengerHandler.ListStops)
	api.GET("/locations/nearest-stop", passengerHandler.NearestStop)
	api.GET("/rides/:id", passengerHandler.GetRide)
	api.GET("/vehicles/nearby", vehicleHandler.Nearby)
	api.GET("/feed", feedHandler.Subscribe)

	// GET /api/rides/:id lives above; active/history get their own prefix so
	// the static segments never collide with the :id wildcard.
	passenger := api.Group("/passenger", middleware.RequireRole(auth.RolePassenger))
	passenger.POST("/rides", passengerHandler.RequestRide)
	passenger.POST("/rides/:id/cancel", passengerHandler.Cancel)
	passenger.GET("/rides/active", passengerHandler.Active)
	passenger.GET("/rides/history", passengerHandler.History)

	drv := api.Group("/driver", middleware.RequireRole(auth.RoleDriver))
	drv.GET("/rides/pending", driverHandler.PendingRides)
	drv.GET("/rides/active", driverHandler.ActiveRide)
	drv.POST("/rides/:id/accept", driverHandler.Accept)
	drv.POST("/rides/:id/arrive", driverHandler.Arrive)
	drv.POST("/rides/:id/start", driverHandler.Start)
	drv.POST("/rides/:id/complete", driverHandler.Complete)
	drv.POST("/availability/toggle", driverHandler.ToggleAvailability)
	drv.GET("/stats", driverHandler.Stats)
	drv.PUT("/vehicle/position", driverHandler.UpdatePosition)

	return r
}
