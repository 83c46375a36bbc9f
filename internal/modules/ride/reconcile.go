// README: Compensating reconciliation; re-derives driver/vehicle state from
// active rides when a crash left the three writes inconsistent.
package ride

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/basgenix4u/fuw-campus-shuttle/internal/observability"
	"github.com/basgenix4u/fuw-campus-shuttle/internal/types"
)

// RunReconciler repairs driver/vehicle availability on a fixed interval until
// the context is cancelled.
func (s *Service) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ReconcileOnce(ctx); err != nil {
				s.log.WithError(err).Warn("reconcile pass failed")
			}
		}
	}
}

// ReconcileOnce makes driver/vehicle state agree with ride state: drivers of
// active rides are busy, busy drivers without an active ride are released.
func (s *Service) ReconcileOnce(ctx context.Context) error {
	active, err := s.store.ActiveAssignments(ctx)
	if err != nil {
		return err
	}
	activeDrivers := make(map[types.ID]struct{}, len(active))
	for _, occ := range active {
		activeDrivers[occ.DriverID] = struct{}{}
		changed, err := s.drivers.SetBusy(ctx, occ.DriverID, occ.VehicleID)
		if err != nil {
			s.log.WithError(err).WithField("driver_id", occ.DriverID).Warn("reconcile: busy repair failed")
			continue
		}
		if changed {
			observability.ReconciliationsTotal.Inc()
			s.log.WithFields(logrus.Fields{"driver_id": occ.DriverID}).Warn("reconcile: driver marked busy to match active ride")
		}
	}

	busy, err := s.drivers.ListBusy(ctx)
	if err != nil {
		return err
	}
	for _, occ := range busy {
		if _, ok := activeDrivers[occ.DriverID]; ok {
			continue
		}
		changed, err := s.drivers.Release(ctx, occ.DriverID, occ.VehicleID, false)
		if err != nil {
			s.log.WithError(err).WithField("driver_id", occ.DriverID).Warn("reconcile: release repair failed")
			continue
		}
		if changed {
			observability.ReconciliationsTotal.Inc()
			s.log.WithFields(logrus.Fields{"driver_id": occ.DriverID}).Warn("reconcile: released driver with no active ride")
		}
	}
	return nil
}
