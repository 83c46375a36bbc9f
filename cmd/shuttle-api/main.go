// README: Entry point; loads config, wires services, starts HTTP server and background loops.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/auth"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/config"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/eta"
	httptransport "github.com/basgenix4u/fuw-campus-shuttle/internal/http"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/infra"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/logging"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/driver"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/location"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/matching"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/modules/ride"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.WithError(err).Fatal("db init")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	defer redisClient.Close()

	authSvc := auth.NewService(auth.NewPGStore(dbPool), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	locationSvc := location.NewService(location.NewPGStore(dbPool), cfg.Matching)

	geoStore := matching.NewGeoStore(redisClient)

	hub := notify.NewHub()
	bridge := notify.NewBridge(redisClient, hub, logger)

	driverSvc := driver.NewService(driver.NewPGStore(dbPool), nil, geoStore, logger)

	var estimator ride.Estimator = eta.Heuristic{}
	if cfg.Maps.APIKey != "" {
		g, err := eta.NewGoogleEstimator(cfg.Maps.APIKey)
		if err != nil {
			logger.WithError(err).Warn("maps estimator unavailable, using heuristic")
		} else {
			estimator = g
		}
	}

	rideSvc := ride.NewService(ride.NewPGStore(dbPool), driverSvc, logger).
		WithAllocator(ride.NewPGAllocator(dbPool)).
		WithNotifier(bridge).
		WithEstimator(estimator)
	driverSvc.BindRides(rideSvc)

	matchingSvc := matching.NewService(driverSvc, geoStore, cfg.Matching, logger)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Auth:      authSvc,
		Rides:     rideSvc,
		Drivers:   driverSvc,
		Locations: locationSvc,
		Matcher:   matchingSvc,
		Hub:       hub,
		Log:       logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go bridge.Run(ctx)
	go rideSvc.RunReconciler(ctx, cfg.Reconcile.Interval)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.WithField("addr", cfg.HTTP.Addr).Info("shuttle api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("serve")
	}
}
