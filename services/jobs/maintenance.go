package jobs

import (
	"lawconnect/services"
	"log"
	"time"

	"gorm.io/gorm"
)

// CleanupSessions purges expired sessions and stale login-failure counters
func CleanupSessions(database *gorm.DB) int64 {
	services.Monitor.Sweep()
	n, err := services.CleanupExpiredSessions(database)
	if err != nil {
		log.Printf("[JOB] Error cleaning up sessions: %v", err)
		return 0
	}
	return n
}

// SweepOverdueInvoices flips pending invoices past their due date to overdue
func SweepOverdueInvoices(database *gorm.DB, now time.Time) int64 {
	n, err := services.MarkOverdueInvoices(database, now)
	if err != nil {
		log.Printf("[JOB] Error marking overdue invoices: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("[JOB] Marked %d invoices overdue", n)
	}
	return n
}
