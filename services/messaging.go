package services

import (
	"errors"
	"fmt"
	"lawconnect/models"
	"log"
	"time"

	"gorm.io/gorm"
)

// getOrCreateCaseThread returns the thread of a case, creating it with the
// client and assigned lawyer as participants.
func getOrCreateCaseThread(tx *gorm.DB, c *models.Case) (*models.Thread, bool, error) {
	if c.LawyerID == nil {
		return nil, false, fmt.Errorf("case %s has no lawyer", c.ID)
	}

	var thread models.Thread
	err := tx.Preload("Participants").Where("case_id = ?", c.ID).First(&thread).Error
	if err == nil {
		for _, id := range []string{c.ClientID, *c.LawyerID} {
			if thread.HasParticipant(id) {
				continue
			}
			if err := tx.Exec("INSERT INTO thread_participants (thread_id, user_id) VALUES (?, ?)", thread.ID, id).Error; err != nil {
				return nil, false, fmt.Errorf("failed to add thread participant: %w", err)
			}
		}
		return &thread, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	thread = models.Thread{
		CaseID:       &c.ID,
		Participants: []models.User{{ID: c.ClientID}, {ID: *c.LawyerID}},
	}
	if err := tx.Omit("Participants.*").Create(&thread).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create thread: %w", err)
	}
	return &thread, true, nil
}

// findThreadBetween returns an existing thread shared by both users
func findThreadBetween(db *gorm.DB, userA, userB string) (*models.Thread, error) {
	var thread models.Thread
	err := db.
		Joins("JOIN thread_participants tpa ON tpa.thread_id = threads.id AND tpa.user_id = ?", userA).
		Joins("JOIN thread_participants tpb ON tpb.thread_id = threads.id AND tpb.user_id = ?", userB).
		Order("threads.updated_at DESC").
		First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// findAcceptedCaseBetween returns the most recent accepted case linking a
// client and a lawyer in either direction.
func findAcceptedCaseBetween(db *gorm.DB, userA, userB string) (*models.Case, error) {
	var c models.Case
	err := db.Where("accepted_by_lawyer_id IS NOT NULL AND accepted_by_lawyer_id <> ''").
		Where("((client_id = ? AND lawyer_id = ?) OR (client_id = ? AND lawyer_id = ?))", userA, userB, userB, userA).
		Order("accepted_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// StartThread opens a conversation with another user. An existing thread is
// reused; a new one is only created when an accepted case links the two
// users, otherwise ErrNoAcceptedCase is returned and nothing is written.
func StartThread(db *gorm.DB, user *models.User, otherID string) (*models.Thread, bool, error) {
	if otherID == "" || otherID == user.ID {
		return nil, false, NewValidationError("Choose someone to message.")
	}
	if _, err := GetUserByID(db, otherID); err != nil {
		return nil, false, err
	}

	if existing, err := findThreadBetween(db, user.ID, otherID); err == nil {
		t, err := GetThreadForUser(db, user, existing.ID)
		return t, false, err
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	c, err := findAcceptedCaseBetween(db, user.ID, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNoAcceptedCase
		}
		return nil, false, err
	}

	var created bool
	var thread *models.Thread
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		thread, created, err = getOrCreateCaseThread(tx, c)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	t, err := GetThreadForUser(db, user, thread.ID)
	return t, created, err
}

// GetThreadForUser loads a thread the user participates in
func GetThreadForUser(db *gorm.DB, user *models.User, threadID string) (*models.Thread, error) {
	var thread models.Thread
	if err := db.Preload("Participants").Preload("Case").First(&thread, "id = ?", threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !thread.HasParticipant(user.ID) {
		return nil, ErrNotParticipant
	}
	annotateThread(&thread, user.ID)
	return &thread, nil
}

func annotateThread(t *models.Thread, userID string) {
	t.ParticipantIDs = make([]string, 0, len(t.Participants))
	for i := range t.Participants {
		t.ParticipantIDs = append(t.ParticipantIDs, t.Participants[i].ID)
		ResolveAvatar(&t.Participants[i])
	}
	t.Participant = t.Other(userID)
	t.CaseAccepted = t.Case != nil && t.Case.IsAccepted()
}

// ListThreads returns the user's threads, most recently active first, each
// annotated with the other participant and its last message.
func ListThreads(db *gorm.DB, user *models.User) ([]models.Thread, error) {
	var threads []models.Thread
	err := db.Preload("Participants").Preload("Case").
		Joins("JOIN thread_participants tp ON tp.thread_id = threads.id AND tp.user_id = ?", user.ID).
		Order("threads.updated_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	for i := range threads {
		annotateThread(&threads[i], user.ID)
		var last models.Message
		if err := db.Where("thread_id = ? AND content <> ''", threads[i].ID).
			Order("created_at DESC").First(&last).Error; err == nil {
			threads[i].LastMessage = &last
		}
	}
	return threads, nil
}

// ListMessages returns the thread's non-empty messages oldest first and
// marks the ones addressed to the user as read.
func ListMessages(db *gorm.DB, user *models.User, threadID string) ([]models.Message, error) {
	if _, err := GetThreadForUser(db, user, threadID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := db.Preload("Sender").
		Where("thread_id = ? AND content <> ''", threadID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if err := db.Model(&models.Message{}).
		Where("thread_id = ? AND receiver_id = ? AND is_read = ?", threadID, user.ID, false).
		Update("is_read", true).Error; err != nil {
		log.Printf("[WARNING] mark messages of %s read for %s: %v", threadID, user.ID, err)
	}

	return messages, nil
}

// SendMessage stores a message from user in the thread, notifies the
// receiver and pushes the message to live subscribers.
func SendMessage(db *gorm.DB, user *models.User, threadID, content string) (*models.Message, error) {
	content = SanitizeText(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	thread, err := GetThreadForUser(db, user, threadID)
	if err != nil {
		return nil, err
	}
	receiver := thread.Other(user.ID)
	if receiver == nil {
		return nil, NewValidationError("This thread has no other participant.")
	}

	msg := &models.Message{
		ThreadID:   thread.ID,
		CaseID:     thread.CaseID,
		SenderID:   user.ID,
		ReceiverID: receiver.ID,
		Content:    content,
	}
	if err := db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	msg.Sender = user
	msg.SenderName = user.Name

	if err := db.Model(&models.Thread{}).Where("id = ?", thread.ID).Update("updated_at", time.Now()).Error; err != nil {
		log.Printf("[WARNING] bump thread %s: %v", thread.ID, err)
	}

	notify(db, receiver.ID, models.NotificationTypeMessage, "New Message", truncateRunes(content, 100), thread.ID)
	Realtime.Publish(ThreadTopic(thread.ID), Event{Type: EventMessage, Payload: msg})
	return msg, nil
}

// UnreadMessageCount counts messages waiting for the user
func UnreadMessageCount(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Message{}).Where("receiver_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}
