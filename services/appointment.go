package services

import (
	"errors"
	"fmt"
	"lawconnect/models"
	"strings"
	"time"

	"gorm.io/gorm"
)

// AppointmentInput is the create/reschedule form
type AppointmentInput struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	ClientID    string
	LawyerID    string
	CaseID      string
}

// CreateAppointment schedules a meeting between the current user and the
// counterpart named in the input, after checking the lawyer's calendar.
func CreateAppointment(db *gorm.DB, user *models.User, in AppointmentInput) (*models.Appointment, error) {
	switch user.Role {
	case models.RoleLawyer:
		in.LawyerID = user.ID
	case models.RoleClient:
		in.ClientID = user.ID
	default:
		return nil, ErrForbidden
	}

	in.Title = SanitizeText(in.Title)
	in.Description = SanitizeText(in.Description)
	if in.Title == "" {
		return nil, NewValidationError("Title is required.")
	}
	if in.ClientID == "" || in.LawyerID == "" {
		return nil, NewValidationError("Both a lawyer and a client are required.")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, NewValidationError("End time must be after start time.")
	}

	if _, err := GetLawyer(db, in.LawyerID); err != nil {
		return nil, NewValidationError("Lawyer not found.")
	}
	if _, err := GetClient(db, in.ClientID); err != nil {
		return nil, NewValidationError("Client not found.")
	}

	var caseID *string
	if in.CaseID != "" {
		var c models.Case
		if err := db.First(&c, "id = ?", in.CaseID).Error; err != nil {
			return nil, NewValidationError("Case not found.")
		}
		if c.ClientID != in.ClientID || c.LawyerID == nil || *c.LawyerID != in.LawyerID {
			return nil, NewValidationError("The case does not belong to this lawyer and client.")
		}
		caseID = &c.ID
	}

	conflict, err := CheckAppointmentConflict(db, in.LawyerID, in.StartTime, in.EndTime, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrAppointmentConflict
	}

	apt := &models.Appointment{
		Title:       in.Title,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Status:      models.AppointmentStatusPending,
		LawyerID:    in.LawyerID,
		ClientID:    in.ClientID,
		CaseID:      caseID,
	}
	if user.IsLawyer() {
		apt.Status = models.AppointmentStatusConfirmed
	}
	if err := db.Create(apt).Error; err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	other := apt.ClientID
	if user.ID == apt.ClientID {
		other = apt.LawyerID
	}
	notify(db, other, models.NotificationTypeAppointment, "New Appointment",
		fmt.Sprintf("Appointment scheduled for %s", apt.StartTime.Format("Jan 2, 2006 3:04 PM")), apt.ID)
	return apt, nil
}

// CheckAppointmentConflict checks if a time slot overlaps an active appointment of the lawyer
func CheckAppointmentConflict(db *gorm.DB, lawyerID string, startTime, endTime time.Time, excludeID string) (bool, error) {
	var count int64
	query := db.Model(&models.Appointment{}).
		Where("lawyer_id = ?", lawyerID).
		Where("status IN (?)", []string{models.AppointmentStatusPending, models.AppointmentStatusConfirmed}).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAppointments returns the user's appointments ordered by start time
func ListAppointments(db *gorm.DB, user *models.User, f ListFilter) ([]models.Appointment, error) {
	q := db.Preload("Lawyer").Preload("Client").Preload("Case")
	if user.IsLawyer() {
		q = q.Where("lawyer_id = ?", user.ID)
	} else {
		q = q.Where("client_id = ?", user.ID)
	}
	if f.Status != "" && models.IsValidAppointmentStatus(f.Status) {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	var appointments []models.Appointment
	if err := q.Order("start_time ASC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// UpcomingAppointments returns the next active appointments of the user
func UpcomingAppointments(db *gorm.DB, user *models.User, limit int) ([]models.Appointment, error) {
	q := db.Preload("Lawyer").Preload("Client").
		Where("start_time >= ?", time.Now()).
		Where("status IN (?)", []string{models.AppointmentStatusPending, models.AppointmentStatusConfirmed})
	if user.IsLawyer() {
		q = q.Where("lawyer_id = ?", user.ID)
	} else {
		q = q.Where("client_id = ?", user.ID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var appointments []models.Appointment
	err := q.Order("start_time ASC").Find(&appointments).Error
	return appointments, err
}

// GetAppointmentForUser fetches an appointment the user takes part in
func GetAppointmentForUser(db *gorm.DB, user *models.User, id string) (*models.Appointment, error) {
	var apt models.Appointment
	if err := db.Preload("Lawyer").Preload("Client").Preload("Case").First(&apt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if apt.LawyerID != user.ID && apt.ClientID != user.ID {
		return nil, ErrForbidden
	}
	return &apt, nil
}

// RescheduleAppointment changes title, description and time of an active appointment
func RescheduleAppointment(db *gorm.DB, user *models.User, id string, in AppointmentInput) (*models.Appointment, error) {
	apt, err := GetAppointmentForUser(db, user, id)
	if err != nil {
		return nil, err
	}
	if !apt.IsActive() {
		return nil, NewValidationError("Only pending or confirmed appointments can be rescheduled.")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, NewValidationError("End time must be after start time.")
	}

	conflict, err := CheckAppointmentConflict(db, apt.LawyerID, in.StartTime, in.EndTime, apt.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrAppointmentConflict
	}

	updates := map[string]interface{}{
		"start_time":       in.StartTime,
		"end_time":         in.EndTime,
		"reminder_sent_at": nil,
	}
	if t := SanitizeText(in.Title); t != "" {
		updates["title"] = t
	}
	if in.Description != "" {
		updates["description"] = SanitizeText(in.Description)
	}
	if err := db.Model(apt).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	return apt, nil
}

// UpdateAppointmentStatus changes the status. Clients may only cancel.
// Cancelled and completed appointments are final.
func UpdateAppointmentStatus(db *gorm.DB, user *models.User, id, status string) (*models.Appointment, error) {
	if !models.IsValidAppointmentStatus(status) {
		return nil, NewValidationError("Invalid appointment status.")
	}
	apt, err := GetAppointmentForUser(db, user, id)
	if err != nil {
		return nil, err
	}
	if user.IsClient() && status != models.AppointmentStatusCancelled {
		return nil, ErrForbidden
	}
	if !apt.IsActive() {
		return nil, ErrAppointmentClosed
	}
	if err := db.Model(apt).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	other := apt.ClientID
	if user.ID == apt.ClientID {
		other = apt.LawyerID
	}
	notify(db, other, models.NotificationTypeAppointment, "Appointment Updated",
		fmt.Sprintf("'%s' is now %s.", apt.Title, status), apt.ID)
	return apt, nil
}

// DeleteAppointment removes an appointment the user takes part in
func DeleteAppointment(db *gorm.DB, user *models.User, id string) error {
	apt, err := GetAppointmentForUser(db, user, id)
	if err != nil {
		return err
	}
	return db.Delete(apt).Error
}

// DueReminders returns active appointments starting within window that
// have not been reminded yet.
func DueReminders(db *gorm.DB, now time.Time, window time.Duration) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := db.Preload("Lawyer").Preload("Client").
		Where("status IN (?)", []string{models.AppointmentStatusPending, models.AppointmentStatusConfirmed}).
		Where("start_time > ? AND start_time <= ?", now, now.Add(window)).
		Where("reminder_sent_at IS NULL").
		Find(&appointments).Error
	return appointments, err
}
