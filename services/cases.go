package services

import (
	"errors"
	"fmt"
	"lawconnect/models"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CaseInput is the create/update form for a case
type CaseInput struct {
	Title       string
	Description string
	Type        string
}

// ListFilter is the status + search filter every list page offers
type ListFilter struct {
	Status string
	Query  string
}

func (in *CaseInput) normalize() error {
	in.Title = SanitizeText(in.Title)
	in.Description = SanitizeRichText(in.Description)
	in.Type = SanitizeText(in.Type)
	if in.Title == "" || in.Description == "" {
		return NewValidationError("Title and description are required.")
	}
	if len(in.Title) > 200 {
		return NewValidationError("Title must be at most 200 characters.")
	}
	return nil
}

// CreateCase opens a new case owned by the client
func CreateCase(db *gorm.DB, client *models.User, in CaseInput) (*models.Case, error) {
	if !client.IsClient() {
		return nil, ErrForbidden
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	c := &models.Case{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Status:      models.CaseStatusOpen,
		ClientID:    client.ID,
	}
	if err := db.Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	notify(db, client.ID, models.NotificationTypeCase, "Case Created",
		fmt.Sprintf("Your case '%s' has been created.", c.Title), c.ID)
	return c, nil
}

// ListCasesForUser returns the client's own cases, or for a lawyer the
// cases assigned to them plus open unassigned ones.
func ListCasesForUser(db *gorm.DB, user *models.User, f ListFilter) ([]models.Case, error) {
	q := db.Preload("Client").Preload("Lawyer")

	switch user.Role {
	case models.RoleClient:
		q = q.Where("client_id = ?", user.ID)
	case models.RoleLawyer:
		q = q.Where("(lawyer_id = ? OR (lawyer_id IS NULL AND status = ?))", user.ID, models.CaseStatusOpen)
	}

	if f.Status != "" && models.IsValidCaseStatus(f.Status) {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(type) LIKE ?)", like, like, like)
	}

	var cases []models.Case
	if err := q.Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// ListAssignedCases returns the cases a lawyer accepted, optionally for one client
func ListAssignedCases(db *gorm.DB, lawyerID, clientID string) ([]models.Case, error) {
	q := db.Preload("Client").Where("lawyer_id = ?", lawyerID)
	if clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	var cases []models.Case
	err := q.Order("created_at DESC").Find(&cases).Error
	return cases, err
}

// GetCaseForUser loads a case if the user may see it
func GetCaseForUser(db *gorm.DB, user *models.User, caseID string) (*models.Case, error) {
	var c models.Case
	err := db.Preload("Client").Preload("Lawyer.LawyerProfile").
		Preload("Updates", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("Updates.CreatedBy").
		First(&c, "id = ?", caseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if c.InvolvesUser(user.ID) {
		return &c, nil
	}
	// Lawyers may browse open cases before accepting them
	if user.IsLawyer() && c.IsAcceptable() {
		return &c, nil
	}
	return nil, ErrForbidden
}

// UpdateCase edits title, description and type. Only the owning client may
// edit, and only while the case is open.
func UpdateCase(db *gorm.DB, user *models.User, caseID string, in CaseInput) (*models.Case, error) {
	c, err := GetCaseForUser(db, user, caseID)
	if err != nil {
		return nil, err
	}
	if c.ClientID != user.ID {
		return nil, ErrForbidden
	}
	if c.Status != models.CaseStatusOpen {
		return nil, NewValidationError("Only open cases can be edited.")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	if err := db.Model(c).Updates(map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"type":        in.Type,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	return c, nil
}

// UpdateCaseStatus moves a case between open, in_review and closed
func UpdateCaseStatus(db *gorm.DB, user *models.User, caseID, status string) (*models.Case, error) {
	if !models.IsValidCaseStatus(status) {
		return nil, NewValidationError("Invalid status.")
	}
	c, err := GetCaseForUser(db, user, caseID)
	if err != nil {
		return nil, err
	}
	if !c.InvolvesUser(user.ID) {
		return nil, ErrForbidden
	}
	// Clients may only close their case
	if user.IsClient() && status != models.CaseStatusClosed {
		return nil, ErrForbidden
	}

	if err := db.Model(c).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}

	other := c.ClientID
	if user.ID == c.ClientID && c.LawyerID != nil {
		other = *c.LawyerID
	}
	if other != user.ID {
		notify(db, other, models.NotificationTypeCase, "Case Updated",
			fmt.Sprintf("Case '%s' is now %s.", c.Title, strings.ReplaceAll(status, "_", " ")), c.ID)
	}
	return c, nil
}

// DeleteCase removes a case. Only the owning client may delete it.
func DeleteCase(db *gorm.DB, user *models.User, caseID string) error {
	var c models.Case
	if err := db.First(&c, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if c.ClientID != user.ID {
		return ErrForbidden
	}
	if err := db.Delete(&c).Error; err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}

// AcceptCaseResult reports what accepting a case produced
type AcceptCaseResult struct {
	Case          *models.Case
	Thread        *models.Thread
	ThreadCreated bool
}

// AcceptCase assigns the lawyer to an unassigned case, moves it to
// in_review and opens the case chat thread. The conditional update makes
// a concurrent second accept fail with ErrCaseAlreadyAccepted.
func AcceptCase(db *gorm.DB, lawyer *models.User, caseID string) (*AcceptCaseResult, error) {
	if !lawyer.IsLawyer() {
		return nil, ErrForbidden
	}

	result := &AcceptCaseResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		var c models.Case
		if err := tx.Preload("Client").First(&c, "id = ?", caseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if c.LawyerID != nil && *c.LawyerID != "" {
			return ErrCaseAlreadyAccepted
		}

		now := time.Now()
		res := tx.Model(&models.Case{}).
			Where("id = ? AND lawyer_id IS NULL", c.ID).
			Updates(map[string]interface{}{
				"lawyer_id":             lawyer.ID,
				"accepted_by_lawyer_id": lawyer.ID,
				"accepted_at":           now,
				"status":                models.CaseStatusInReview,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to accept case: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCaseAlreadyAccepted
		}

		c.LawyerID = &lawyer.ID
		c.AcceptedByLawyerID = &lawyer.ID
		c.AcceptedAt = &now
		c.Status = models.CaseStatusInReview
		c.Lawyer = lawyer

		thread, created, err := getOrCreateCaseThread(tx, &c)
		if err != nil {
			return err
		}

		// Any pending requests for this case are settled by the acceptance
		tx.Model(&models.CaseRequest{}).
			Where("case_id = ? AND status = ? AND lawyer_id = ?", c.ID, models.StatusPending, lawyer.ID).
			Updates(map[string]interface{}{"status": models.StatusAccepted, "responded_at": now})
		tx.Model(&models.CaseRequest{}).
			Where("case_id = ? AND status = ? AND lawyer_id <> ?", c.ID, models.StatusPending, lawyer.ID).
			Updates(map[string]interface{}{"status": models.StatusRejected, "responded_at": now})

		result.Case = &c
		result.Thread = thread
		result.ThreadCreated = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(db, result.Case.ClientID, models.NotificationTypeCase, "Case Accepted",
		fmt.Sprintf("Your case '%s' was accepted by %s", result.Case.Title, lawyer.Name), result.Case.ID)
	return result, nil
}

// AddCaseUpdate appends a timeline note and notifies the other party
func AddCaseUpdate(db *gorm.DB, user *models.User, caseID, message string) (*models.CaseUpdate, error) {
	message = SanitizeText(message)
	if message == "" {
		return nil, NewValidationError("Update message cannot be empty.")
	}

	c, err := GetCaseForUser(db, user, caseID)
	if err != nil {
		return nil, err
	}
	if !c.InvolvesUser(user.ID) {
		return nil, ErrForbidden
	}

	update := &models.CaseUpdate{
		CaseID:      c.ID,
		Message:     message,
		CreatedByID: user.ID,
	}
	if err := db.Create(update).Error; err != nil {
		return nil, fmt.Errorf("failed to add case update: %w", err)
	}
	update.CreatedBy = user

	recipient := c.ClientID
	if user.ID == c.ClientID {
		recipient = ""
		if c.LawyerID != nil {
			recipient = *c.LawyerID
		}
	}
	if recipient != "" {
		notify(db, recipient, models.NotificationTypeCase, "Case Update", truncateRunes(message, 100), c.ID)
	}
	return update, nil
}

// ListCaseUpdates returns the timeline of a case, oldest first
func ListCaseUpdates(db *gorm.DB, user *models.User, caseID string) ([]models.CaseUpdate, error) {
	if _, err := GetCaseForUser(db, user, caseID); err != nil {
		return nil, err
	}
	var updates []models.CaseUpdate
	err := db.Preload("CreatedBy").Where("case_id = ?", caseID).Order("created_at ASC").Find(&updates).Error
	return updates, err
}

// DeleteCaseUpdate removes a note written by the user
func DeleteCaseUpdate(db *gorm.DB, user *models.User, updateID string) error {
	result := db.Where("id = ? AND created_by_id = ?", updateID, user.ID).Delete(&models.CaseUpdate{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete case update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CaseStatusCounts counts a user's cases per status
func CaseStatusCounts(db *gorm.DB, user *models.User) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	q := db.Model(&models.Case{}).Select("status, COUNT(*) AS count")
	if user.IsLawyer() {
		q = q.Where("lawyer_id = ?", user.ID)
	} else {
		q = q.Where("client_id = ?", user.ID)
	}
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.CaseStatusOpen:     0,
		models.CaseStatusInReview: 0,
		models.CaseStatusClosed:   0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// truncateRunes shortens s to n runes without splitting a character
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
