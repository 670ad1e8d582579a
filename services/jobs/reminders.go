package jobs

import (
	"fmt"
	"lawconnect/config"
	"lawconnect/models"
	"lawconnect/services"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SendAppointmentReminders reminds both participants of appointments
// starting within the next day. Each appointment is reminded once.
func SendAppointmentReminders(database *gorm.DB, cfg *config.Config, now time.Time) int {
	appointments, err := services.DueReminders(database, now, ReminderWindow)
	if err != nil {
		log.Printf("[JOB] Error fetching appointments for reminders: %v", err)
		return 0
	}

	sent := 0
	for i := range appointments {
		apt := &appointments[i]
		if apt.Lawyer == nil || apt.Client == nil {
			continue
		}

		remind(database, cfg, apt, apt.Client, apt.Lawyer)
		remind(database, cfg, apt, apt.Lawyer, apt.Client)

		if err := database.Model(apt).Update("reminder_sent_at", now).Error; err != nil {
			log.Printf("[JOB] Failed to mark reminder for appointment %s: %v", apt.ID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Printf("[JOB] Sent reminders for %d appointments", sent)
	}
	return sent
}

func remind(database *gorm.DB, cfg *config.Config, apt *models.Appointment, to, with *models.User) {
	when := apt.StartTime.Format("Monday, January 2 at 3:04 PM")
	if _, err := services.NotifyUser(database, to.ID, models.NotificationTypeAppointment, "Appointment Reminder",
		fmt.Sprintf("'%s' with %s on %s.", apt.Title, with.Name, when), apt.ID); err != nil {
		log.Printf("[JOB] Failed to notify %s: %v", to.ID, err)
	}

	if !to.NotifyEmail || to.Email == "" {
		return
	}
	area := "/client"
	if to.IsLawyer() {
		area = "/lawyer"
	}
	email := services.BuildAppointmentReminderEmail(to.Email, services.AppointmentReminderEmailData{
		Name:            to.Name,
		Title:           apt.Title,
		With:            with.Name,
		Date:            apt.StartTime.Format("Monday, January 2, 2006"),
		Time:            apt.StartTime.Format("3:04 PM"),
		Duration:        apt.Duration(),
		AppointmentsURL: strings.TrimSuffix(cfg.AppURL, "/") + area + "/appointments",
	})
	if err := services.SendEmail(cfg, email); err != nil {
		log.Printf("[JOB] Failed to send reminder for appointment %s: %v", apt.ID, err)
	}
}
