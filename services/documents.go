package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"lawconnect/models"
	"log"
	"mime/multipart"
	"strings"

	"gorm.io/gorm"
)

// CreateFolder adds a folder for the user
func CreateFolder(db *gorm.DB, user *models.User, name string) (*models.Folder, error) {
	name = SanitizeText(name)
	if name == "" {
		return nil, NewValidationError("Folder name is required.")
	}
	if len(name) > 100 {
		return nil, NewValidationError("Folder name must be at most 100 characters.")
	}
	folder := &models.Folder{Name: name, OwnerID: user.ID}
	if err := db.Create(folder).Error; err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	return folder, nil
}

// ListFolders returns the user's folders with their document counts
func ListFolders(db *gorm.DB, user *models.User) ([]models.Folder, error) {
	var folders []models.Folder
	if err := db.Where("owner_id = ?", user.ID).Order("name ASC").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	type row struct {
		FolderID string
		Count    int64
	}
	var rows []row
	db.Model(&models.Document{}).
		Select("folder_id, COUNT(*) AS count").
		Where("owner_id = ? AND folder_id IS NOT NULL", user.ID).
		Group("folder_id").
		Scan(&rows)
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.FolderID] = r.Count
	}
	for i := range folders {
		folders[i].Count = counts[folders[i].ID]
	}
	return folders, nil
}

func getOwnFolder(db *gorm.DB, user *models.User, id string) (*models.Folder, error) {
	var folder models.Folder
	if err := db.Where("id = ? AND owner_id = ?", id, user.ID).First(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// RenameFolder changes the folder name
func RenameFolder(db *gorm.DB, user *models.User, id, name string) (*models.Folder, error) {
	folder, err := getOwnFolder(db, user, id)
	if err != nil {
		return nil, err
	}
	name = SanitizeText(name)
	if name == "" {
		return nil, NewValidationError("Folder name is required.")
	}
	if err := db.Model(folder).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("failed to rename folder: %w", err)
	}
	return folder, nil
}

// DeleteFolder removes a folder; its documents move back to the root
func DeleteFolder(db *gorm.DB, user *models.User, id string) error {
	folder, err := getOwnFolder(db, user, id)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Document{}).Where("folder_id = ?", folder.ID).Update("folder_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(folder).Error
	})
}

// DocumentInput carries the optional placement of an upload
type DocumentInput struct {
	Name     string
	FolderID string
	CaseID   string
	IsShared bool
}

// UploadDocument stores the file and records the document for the user
func UploadDocument(ctx context.Context, db *gorm.DB, user *models.User, file *multipart.FileHeader, in DocumentInput) (*models.Document, error) {
	if file == nil {
		return nil, NewValidationError("Choose a file to upload.")
	}

	doc := &models.Document{
		Name:     SafeFileName(file.Filename),
		OwnerID:  user.ID,
		IsShared: in.IsShared,
	}
	if n := SanitizeText(in.Name); n != "" {
		doc.Name = n
	}
	if in.FolderID != "" {
		folder, err := getOwnFolder(db, user, in.FolderID)
		if err != nil {
			return nil, NewValidationError("Folder not found.")
		}
		doc.FolderID = &folder.ID
	}
	if in.CaseID != "" {
		c, err := GetCaseForUser(db, user, in.CaseID)
		if err != nil || !c.InvolvesUser(user.ID) {
			return nil, NewValidationError("Case not found.")
		}
		doc.CaseID = &c.ID
	}

	result, err := StoreUpload(ctx, file, GenerateDocumentKey(user.ID, file.Filename), allowedDocumentTypes)
	if err != nil {
		return nil, err
	}
	doc.StorageKey = result.Key
	doc.FileSize = result.FileSize
	doc.MimeType = result.MimeType

	if err := db.Create(doc).Error; err != nil {
		if delErr := Storage.Delete(ctx, result.Key); delErr != nil {
			log.Printf("[WARNING] orphaned upload %s: %v", result.Key, delErr)
		}
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	doc.URL = documentURL(doc)

	if doc.CaseID != nil && doc.IsShared {
		notifyCaseCounterpart(db, user, *doc.CaseID, models.NotificationTypeDocument,
			"New Document", fmt.Sprintf("%s shared '%s'.", user.Name, doc.Name), doc.ID)
	}
	return doc, nil
}

func documentURL(doc *models.Document) string {
	return "/api/law/documents/" + doc.ID + "/download"
}

// sharedCaseIDs selects the cases the user takes part in
func sharedCaseIDs(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&models.Case{}).Select("id").Where("(client_id = ? OR lawyer_id = ?)", userID, userID)
}

// DocumentFilter narrows the document list
type DocumentFilter struct {
	FolderID string
	CaseID   string
	Query    string
}

// ListDocuments returns the user's own documents plus documents shared on
// cases the user takes part in, newest first.
func ListDocuments(db *gorm.DB, user *models.User, f DocumentFilter) ([]models.Document, error) {
	q := db.Where("(owner_id = ? OR (is_shared = ? AND case_id IN (?)))", user.ID, true, sharedCaseIDs(db, user.ID))
	if f.FolderID != "" {
		q = q.Where("folder_id = ?", f.FolderID)
	}
	if f.CaseID != "" {
		q = q.Where("case_id = ?", f.CaseID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var docs []models.Document
	if err := q.Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	for i := range docs {
		docs[i].URL = documentURL(&docs[i])
	}
	return docs, nil
}

// GetDocumentForUser loads a document the user owns or can see through a case
func GetDocumentForUser(db *gorm.DB, user *models.User, id string) (*models.Document, error) {
	var doc models.Document
	if err := db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.OwnerID != user.ID {
		if !doc.IsShared || doc.CaseID == nil {
			return nil, ErrNotFound
		}
		var c models.Case
		if err := db.First(&c, "id = ?", *doc.CaseID).Error; err != nil || !c.InvolvesUser(user.ID) {
			return nil, ErrNotFound
		}
	}
	doc.URL = documentURL(&doc)
	return &doc, nil
}

// OpenDocument returns a reader over the stored file
func OpenDocument(ctx context.Context, db *gorm.DB, user *models.User, id string) (*models.Document, io.ReadCloser, string, error) {
	doc, err := GetDocumentForUser(db, user, id)
	if err != nil {
		return nil, nil, "", err
	}
	if Storage == nil {
		return nil, nil, "", fmt.Errorf("storage is not initialized")
	}
	reader, contentType, err := Storage.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, "", err
	}
	if doc.MimeType != "" {
		contentType = doc.MimeType
	}
	return doc, reader, contentType, nil
}

// UpdateDocumentInput edits name, folder and sharing. Nil means unchanged.
type UpdateDocumentInput struct {
	Name     *string
	FolderID *string
	IsShared *bool
}

// UpdateDocument edits one of the user's own documents
func UpdateDocument(db *gorm.DB, user *models.User, id string, in UpdateDocumentInput) (*models.Document, error) {
	doc, err := GetDocumentForUser(db, user, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != user.ID {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := SanitizeText(*in.Name)
		if name == "" {
			return nil, NewValidationError("Document name is required.")
		}
		updates["name"] = name
	}
	if in.FolderID != nil {
		if *in.FolderID == "" {
			updates["folder_id"] = nil
		} else {
			folder, err := getOwnFolder(db, user, *in.FolderID)
			if err != nil {
				return nil, NewValidationError("Folder not found.")
			}
			updates["folder_id"] = folder.ID
		}
	}
	if in.IsShared != nil {
		updates["is_shared"] = *in.IsShared
	}
	if len(updates) > 0 {
		if err := db.Model(doc).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update document: %w", err)
		}
	}
	return GetDocumentForUser(db, user, id)
}

// DeleteDocument removes the stored object and the record
func DeleteDocument(ctx context.Context, db *gorm.DB, user *models.User, id string) error {
	doc, err := GetDocumentForUser(db, user, id)
	if err != nil {
		return err
	}
	if doc.OwnerID != user.ID {
		return ErrForbidden
	}
	if Storage != nil {
		if err := Storage.Delete(ctx, doc.StorageKey); err != nil {
			return fmt.Errorf("failed to delete stored file: %w", err)
		}
	}
	return db.Delete(doc).Error
}

// notifyCaseCounterpart notifies the other party of a case
func notifyCaseCounterpart(db *gorm.DB, user *models.User, caseID, notifType, title, content, relatedID string) {
	var c models.Case
	if err := db.First(&c, "id = ?", caseID).Error; err != nil {
		return
	}
	recipient := c.ClientID
	if user.ID == c.ClientID {
		if c.LawyerID == nil {
			return
		}
		recipient = *c.LawyerID
	}
	notify(db, recipient, notifType, title, content, relatedID)
}
