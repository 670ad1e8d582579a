package services

import (
	"errors"
	"fmt"
	"lawconnect/models"
	"time"

	"gorm.io/gorm"
)

// CaseRequestInput is a client asking a lawyer to take a case
type CaseRequestInput struct {
	CaseID   string
	LawyerID string
	Message  string
}

// CreateCaseRequest sends one of the client's open cases to a lawyer
func CreateCaseRequest(db *gorm.DB, client *models.User, in CaseRequestInput) (*models.CaseRequest, error) {
	if !client.IsClient() {
		return nil, ErrForbidden
	}
	if in.CaseID == "" || in.LawyerID == "" {
		return nil, NewValidationError("Lawyer ID is required.")
	}

	var c models.Case
	if err := db.First(&c, "id = ?", in.CaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.ClientID != client.ID {
		return nil, ErrForbidden
	}
	if !c.IsAcceptable() {
		return nil, ErrCaseAlreadyAccepted
	}

	lawyer, err := GetLawyer(db, in.LawyerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewValidationError("Lawyer with the given ID does not exist.")
		}
		return nil, err
	}

	var dup int64
	db.Model(&models.CaseRequest{}).
		Where("case_id = ? AND lawyer_id = ? AND status = ?", c.ID, lawyer.ID, models.StatusPending).
		Count(&dup)
	if dup > 0 {
		return nil, NewValidationError("A request for this case is already pending with this lawyer.")
	}

	req := &models.CaseRequest{
		CaseID:   c.ID,
		ClientID: client.ID,
		LawyerID: lawyer.ID,
		Message:  SanitizeText(in.Message),
		Status:   models.StatusPending,
	}
	if err := db.Create(req).Error; err != nil {
		return nil, fmt.Errorf("failed to create case request: %w", err)
	}
	req.Case = &c
	req.Client = client
	req.Lawyer = lawyer
	req.ClientName = client.Name
	req.LawyerName = lawyer.Name

	notify(db, lawyer.ID, models.NotificationTypeCase, "New Case Request",
		fmt.Sprintf("%s asked you to take the case '%s'.", client.Name, c.Title), req.ID)
	return req, nil
}

// ListCaseRequests returns requests addressed to a lawyer or sent by a
// client, newest first.
func ListCaseRequests(db *gorm.DB, user *models.User, status string) ([]models.CaseRequest, error) {
	q := db.Preload("Case").Preload("Client").Preload("Lawyer")
	if user.IsLawyer() {
		q = q.Where("lawyer_id = ?", user.ID)
	} else {
		q = q.Where("client_id = ?", user.ID)
	}
	if status != "" && models.IsValidStatus(status) {
		q = q.Where("status = ?", status)
	}

	var requests []models.CaseRequest
	if err := q.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list case requests: %w", err)
	}
	return requests, nil
}

// GetCaseRequestForUser loads a request sent by or addressed to the user
func GetCaseRequestForUser(db *gorm.DB, user *models.User, id string) (*models.CaseRequest, error) {
	var req models.CaseRequest
	if err := db.Preload("Case").Preload("Client").Preload("Lawyer").First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.ClientID != user.ID && req.LawyerID != user.ID {
		return nil, ErrForbidden
	}
	return &req, nil
}

// RespondCaseRequest lets the addressed lawyer accept or reject. Accepting
// also accepts the case.
func RespondCaseRequest(db *gorm.DB, lawyer *models.User, id, decision string) (*models.CaseRequest, *AcceptCaseResult, error) {
	if decision != models.StatusAccepted && decision != models.StatusRejected {
		return nil, nil, NewValidationError("Decision must be accepted or rejected.")
	}
	req, err := GetCaseRequestForUser(db, lawyer, id)
	if err != nil {
		return nil, nil, err
	}
	if req.LawyerID != lawyer.ID {
		return nil, nil, ErrForbidden
	}
	if req.Status != models.StatusPending {
		return nil, nil, ErrRequestResolved
	}

	if decision == models.StatusAccepted {
		accepted, err := AcceptCase(db, lawyer, req.CaseID)
		if err != nil {
			return nil, nil, err
		}
		// AcceptCase settles every pending request of the case
		if err := db.First(req, "id = ?", req.ID).Error; err != nil {
			return nil, nil, err
		}
		return req, accepted, nil
	}

	now := time.Now()
	if err := db.Model(req).Updates(map[string]interface{}{
		"status":       models.StatusRejected,
		"responded_at": now,
	}).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to reject case request: %w", err)
	}

	title := ""
	if req.Case != nil {
		title = req.Case.Title
	}
	notify(db, req.ClientID, models.NotificationTypeCase, "Case Request Declined",
		fmt.Sprintf("%s declined your request for '%s'.", lawyer.Name, title), req.ID)
	return req, nil, nil
}

// DeleteCaseRequest withdraws a pending request sent by the client
func DeleteCaseRequest(db *gorm.DB, client *models.User, id string) error {
	req, err := GetCaseRequestForUser(db, client, id)
	if err != nil {
		return err
	}
	if req.ClientID != client.ID {
		return ErrForbidden
	}
	if req.Status != models.StatusPending {
		return ErrRequestResolved
	}
	return db.Delete(req).Error
}
