package scheduler

import (
	"context"
	"time"

	"github.com/locallens/locallens-backend/config"
	"github.com/locallens/locallens-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// ReservationExpirer moves reservations past their expiry date to expired
type ReservationExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// RoleReconciler promotes owners of verified shops that are still customers
type RoleReconciler interface {
	ReconcileOwnerRoles(ctx context.Context) (int, error)
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.SchedulerConfig
	expirer    ReservationExpirer
	reconciler RoleReconciler
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(cfg config.SchedulerConfig, expirer ReservationExpirer, reconciler RoleReconciler) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:        cfg,
		expirer:    expirer,
		reconciler: reconciler,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReservationExpirySchedule, s.ExpireReservations); err != nil {
		logger.Error("Failed to add cron job for reservation expiry", err, map[string]interface{}{
			"schedule": s.cfg.ReservationExpirySchedule,
		})
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.RoleReconcileSchedule, s.ReconcileRoles); err != nil {
		logger.Error("Failed to add cron job for role reconciliation", err, map[string]interface{}{
			"schedule": s.cfg.RoleReconcileSchedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Scheduler started", map[string]interface{}{
		"reservation_expiry": s.cfg.ReservationExpirySchedule,
		"role_reconcile":     s.cfg.RoleReconcileSchedule,
	})
	return nil
}

// ExpireReservations is the reservation expiry job body
func (s *Scheduler) ExpireReservations() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	count, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		logger.Error("Reservation expiry job failed", err)
		return
	}
	if count > 0 {
		logger.Info("Expired overdue reservations", map[string]interface{}{
			"count": count,
		})
	}
}

// ReconcileRoles is the owner role reconciliation job body
func (s *Scheduler) ReconcileRoles() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	count, err := s.reconciler.ReconcileOwnerRoles(ctx)
	if err != nil {
		logger.Error("Role reconciliation job failed", err)
		return
	}
	if count > 0 {
		logger.Info("Promoted shop owners to retailer", map[string]interface{}{
			"count": count,
		})
	}
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping scheduler...")
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}
