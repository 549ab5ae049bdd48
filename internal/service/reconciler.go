package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"bikeshare/internal/repository"
)

// InventoryReconciler periodically compares the in-memory inventory
// against the persisted station rows and repairs drift. The inventory
// is authoritative; the rows are write-through copies that can fall
// behind when a persist fails mid-flight.
type InventoryReconciler struct {
	cron        *cron.Cron
	inventory   *StationInventory
	stationRepo repository.StationRepository
	notifier    *NotificationService
	schedule    string
}

// NewInventoryReconciler creates a reconciler with the given cron
// schedule (standard 5-field spec, e.g. "*/5 * * * *").
func NewInventoryReconciler(
	inventory *StationInventory,
	stationRepo repository.StationRepository,
	notifier *NotificationService,
	schedule string,
) *InventoryReconciler {
	return &InventoryReconciler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		inventory:   inventory,
		stationRepo: stationRepo,
		notifier:    notifier,
		schedule:    schedule,
	}
}

// Start registers and starts the reconciliation job.
func (r *InventoryReconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.Run); err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("inventory reconciler started: schedule %q", r.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *InventoryReconciler) Stop() {
	<-r.cron.Stop().Done()
}

// Run executes one reconciliation sweep.
func (r *InventoryReconciler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repaired := 0
	for _, station := range r.inventory.ListStations() {
		row, err := r.stationRepo.GetByID(ctx, station.ID)
		if err != nil {
			log.Printf("reconciler: failed to read station %s: %v", station.ID, err)
			continue
		}

		if row.AvailableStandardBikes == station.AvailableStandardBikes &&
			row.AvailableElectricBikes == station.AvailableElectricBikes {
			continue
		}

		r.notifier.AlertOperator(ctx,
			"station %s counts drifted: stored standard=%d electric=%d, live standard=%d electric=%d",
			station.ID,
			row.AvailableStandardBikes, row.AvailableElectricBikes,
			station.AvailableStandardBikes, station.AvailableElectricBikes)

		if err := r.stationRepo.UpdateCounts(ctx, station.ID, station.AvailableStandardBikes, station.AvailableElectricBikes); err != nil {
			log.Printf("reconciler: failed to repair station %s: %v", station.ID, err)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		log.Printf("reconciler: repaired %d station rows", repaired)
	}
}
