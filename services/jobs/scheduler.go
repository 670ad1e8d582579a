package jobs

import (
	"context"
	"lawconnect/config"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Schedules for the background jobs. Reminders run often enough that an
// appointment is never reminded later than a quarter hour into its window.
const (
	SessionCleanupSchedule = "@every 1h"
	OverdueSweepSchedule   = "5 * * * *"
	ReminderSchedule       = "*/15 * * * *"

	ReminderWindow = 24 * time.Hour
)

// StartScheduler registers the background jobs and runs them until ctx is
// cancelled. The returned cron is already started.
func StartScheduler(ctx context.Context, database *gorm.DB, cfg *config.Config) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	entries := []struct {
		spec string
		name string
		run  func()
	}{
		{SessionCleanupSchedule, "session cleanup", func() { CleanupSessions(database) }},
		{OverdueSweepSchedule, "overdue invoices", func() { SweepOverdueInvoices(database, time.Now().UTC()) }},
		{ReminderSchedule, "appointment reminders", func() { SendAppointmentReminders(database, cfg, time.Now().UTC()) }},
	}
	for _, e := range entries {
		name, run := e.name, e.run
		if _, err := c.AddFunc(e.spec, func() {
			log.Printf("[CRON] Running %s", name)
			run()
		}); err != nil {
			return nil, err
		}
	}

	c.Start()
	log.Println("[CRON] Scheduler started")

	go func() {
		<-ctx.Done()
		stopped := c.Stop()
		<-stopped.Done()
		log.Println("[CRON] Scheduler stopped")
	}()
	return c, nil
}
