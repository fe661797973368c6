// Package scheduler refreshes the served mapping: one conversion at start,
// then at the configured times of day. A failed refresh keeps the previous
// mapping in place.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/drugbank-mapping/interfaces"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/mapping"
	"github.com/giygas/drugbank-mapping/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// staleAfter is how old the mapping may get before the monitor complains
const staleAfter = 25 * time.Hour

// Scheduler handles data updates and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	converter interfaces.Converter
	validator interfaces.DataValidator
	refreshAt string
	scheduler *gocron.Scheduler

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// refreshAt is a gocron At() expression such as "06:00;18:00".
func NewScheduler(dataStore interfaces.DataStore, converter interfaces.Converter, refreshAt string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		dataStore: dataStore,
		converter: converter,
		validator: validation.NewDataValidator(),
		refreshAt: refreshAt,
		scheduler: gocron.NewScheduler(time.Local),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start performs the initial load and schedules the refreshes
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.refreshAt).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to update data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()

	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and cancels a running conversion
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.scheduler.Stop()
	})
}

// updateData runs one conversion and swaps the result in
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting mapping update", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	memory := &mapping.MemorySink{}
	result, err := s.converter.Run(s.ctx, memory)
	if err != nil {
		return fmt.Errorf("failed to convert mapping: %w", err)
	}

	report := s.validator.ReportDataQuality(memory.Rows, result.Stats)
	if report.AmbiguousBrands > 0 {
		logging.Warn("Brands mapped to several generics",
			"total", report.AmbiguousBrands,
			"brands", report.AmbiguousBrandsList,
		)
	}
	if report.SkippedRecords > 0 {
		logging.Warn("Drug records skipped during conversion", "count", report.SkippedRecords)
	}

	s.dataStore.UpdateData(memory.Rows, result.Stats)

	logging.Info("Mapping update completed",
		"run_id", result.RunID,
		"duration", time.Since(start).String(),
		"rows", len(memory.Rows),
	)

	return nil
}

// startHealthMonitoring warns when the mapping has not been refreshed for too long
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if time.Since(s.dataStore.GetLastUpdated()) > staleAfter {
					logging.Warn("Mapping hasn't been updated in over 25 hours")
				}
			}
		}
	}()
}
