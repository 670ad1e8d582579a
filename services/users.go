package services

import (
	"context"
	"errors"
	"fmt"
	"lawconnect/models"
	"log"
	"mime/multipart"
	"net/mail"
	"strings"

	"gorm.io/gorm"
)

// RegistrationInput is the registration form
type RegistrationInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Role            string
	Specialization  string
	License         string
	Firm            string
	Avatar          *multipart.FileHeader
}

// RegisterUser validates the form, creates the user with its role profile
// and stores the optional avatar.
func RegisterUser(ctx context.Context, db *gorm.DB, in RegistrationInput) (*models.User, error) {
	in.Username = SanitizeText(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.TrimSpace(in.Role)
	in.Specialization = SanitizeText(in.Specialization)
	in.License = SanitizeText(in.License)
	in.Firm = SanitizeText(in.Firm)

	if in.Username == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, NewValidationError("Name, email, password and role are required.")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, NewValidationError("Enter a valid email address.")
	}
	if in.Password != in.ConfirmPassword {
		return nil, NewValidationError("Passwords do not match.")
	}
	if !models.IsValidRole(in.Role) {
		return nil, NewValidationError("Role must be client or lawyer.")
	}
	if in.Role == models.RoleLawyer && (in.Specialization == "" || in.License == "") {
		return nil, NewValidationError("Specialization and license are required for lawyers.")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	var existing int64
	db.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing)
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:        in.Username,
		Email:       in.Email,
		Password:    hash,
		Phone:       in.Phone,
		Role:        in.Role,
		IsActive:    true,
		NotifyEmail: true,
		NotifyPush:  true,
		ShowProfile: true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if user.Role == models.RoleLawyer {
			profile := &models.LawyerProfile{
				UserID:         user.ID,
				Specialization: in.Specialization,
				License:        in.License,
				Firm:           in.Firm,
			}
			if err := tx.Create(profile).Error; err != nil {
				return fmt.Errorf("failed to create lawyer profile: %w", err)
			}
			user.LawyerProfile = profile
			return nil
		}
		profile := &models.ClientProfile{UserID: user.ID}
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create client profile: %w", err)
		}
		user.ClientProfile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.Avatar != nil {
		if err := SetAvatar(ctx, db, user, in.Avatar); err != nil {
			log.Printf("[WARNING] avatar upload failed for %s: %v", user.ID, err)
		}
	}

	log.Printf("[INFO] Registered %s user %s", user.Role, user.ID)
	return user, nil
}

// SetAvatar stores an avatar image for the user, replacing the old one
func SetAvatar(ctx context.Context, db *gorm.DB, user *models.User, file *multipart.FileHeader) error {
	result, err := StoreUpload(ctx, file, GenerateAvatarKey(user.ID, file.Filename), allowedImageTypes)
	if err != nil {
		return err
	}
	old := user.AvatarKey
	if err := db.Model(user).Update("avatar_key", result.Key).Error; err != nil {
		return fmt.Errorf("failed to save avatar: %w", err)
	}
	user.AvatarKey = result.Key
	if old != "" && Storage != nil {
		if err := Storage.Delete(ctx, old); err != nil {
			log.Printf("[WARNING] failed to delete old avatar %s: %v", old, err)
		}
	}
	ResolveAvatar(user)
	return nil
}

// ResolveAvatar fills the public avatar URL of a loaded user
func ResolveAvatar(user *models.User) {
	if user == nil || user.AvatarKey == "" {
		return
	}
	user.AvatarURL = "/media/avatars/" + user.ID
}

// GetUserByID loads a user with its lawyer profile
func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Preload("LawyerProfile").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ResolveAvatar(&user)
	return &user, nil
}

// DirectoryFilter narrows the lawyer or client directory
type DirectoryFilter struct {
	Query          string
	Specialization string
}

// ListLawyers returns lawyers visible in the directory, matching the
// query against name and specialization.
func ListLawyers(db *gorm.DB, f DirectoryFilter) ([]models.User, error) {
	q := db.Model(&models.User{}).
		Preload("LawyerProfile").
		Joins("LEFT JOIN lawyer_profiles ON lawyer_profiles.user_id = users.id").
		Where("users.role = ? AND users.is_active = ? AND users.show_profile = ?", models.RoleLawyer, true, true)

	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(users.name) LIKE ? OR LOWER(lawyer_profiles.specialization) LIKE ?)", like, like)
	}
	if f.Specialization != "" {
		q = q.Where("lawyer_profiles.specialization = ?", f.Specialization)
	}

	var lawyers []models.User
	if err := q.Order("users.name ASC").Find(&lawyers).Error; err != nil {
		return nil, fmt.Errorf("failed to list lawyers: %w", err)
	}
	for i := range lawyers {
		ResolveAvatar(&lawyers[i])
	}
	return lawyers, nil
}

// ListSpecializations returns the distinct specializations for the directory filter
func ListSpecializations(db *gorm.DB) ([]string, error) {
	var specs []string
	err := db.Model(&models.LawyerProfile{}).
		Where("specialization <> ''").
		Distinct().
		Order("specialization").
		Pluck("specialization", &specs).Error
	return specs, err
}

// GetLawyer loads a lawyer by id
func GetLawyer(db *gorm.DB, id string) (*models.User, error) {
	user, err := GetUserByID(db, id)
	if err != nil {
		return nil, err
	}
	if !user.IsLawyer() {
		return nil, ErrNotFound
	}
	return user, nil
}

// ListClients returns client accounts, optionally filtered by name or email
func ListClients(db *gorm.DB, query string) ([]models.User, error) {
	q := db.Where("role = ?", models.RoleClient)
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	var clients []models.User
	if err := q.Order("name ASC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	for i := range clients {
		ResolveAvatar(&clients[i])
	}
	return clients, nil
}

// GetClient loads a client by id
func GetClient(db *gorm.DB, id string) (*models.User, error) {
	user, err := GetUserByID(db, id)
	if err != nil {
		return nil, err
	}
	if !user.IsClient() {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateUserInput carries the editable account fields. Nil means unchanged.
type UpdateUserInput struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Password    *string `json:"password"`
	NotifyEmail *bool   `json:"notify_email"`
	NotifySMS   *bool   `json:"notify_sms"`
	NotifyPush  *bool   `json:"notify_push"`
	ShowProfile *bool   `json:"show_profile"`
	ShareData   *bool   `json:"share_data"`
}

// UpdateUser applies a partial update to the user's account
func UpdateUser(db *gorm.DB, user *models.User, in UpdateUserInput) error {
	updates := map[string]interface{}{}

	if in.Name != nil {
		name := SanitizeText(*in.Name)
		if name == "" {
			return NewValidationError("Name cannot be empty.")
		}
		updates["name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return NewValidationError("Enter a valid email address.")
		}
		var count int64
		db.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count)
		if count > 0 {
			return ErrEmailTaken
		}
		updates["email"] = email
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil && *in.Password != "" {
		if err := ValidatePassword(*in.Password); err != nil {
			return err
		}
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return err
		}
		updates["password"] = hash
	}
	setBool := func(col string, v *bool) {
		if v != nil {
			updates[col] = *v
		}
	}
	setBool("notify_email", in.NotifyEmail)
	setBool("notify_sms", in.NotifySMS)
	setBool("notify_push", in.NotifyPush)
	setBool("show_profile", in.ShowProfile)
	setBool("share_data", in.ShareData)

	if len(updates) == 0 {
		return nil
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return db.Preload("LawyerProfile").First(user, "id = ?", user.ID).Error
}

// LawyerProfileInput carries the editable professional fields
type LawyerProfileInput struct {
	Specialization *string
	License        *string
	Firm           *string
	Bio            *string
	PerCaseCharge  *int64
}

// UpdateLawyerProfile edits the professional profile of a lawyer
func UpdateLawyerProfile(db *gorm.DB, user *models.User, in LawyerProfileInput) (*models.LawyerProfile, error) {
	if !user.IsLawyer() {
		return nil, ErrForbidden
	}

	var profile models.LawyerProfile
	err := db.Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.LawyerProfile{UserID: user.ID}
	} else if err != nil {
		return nil, err
	}

	if in.Specialization != nil {
		profile.Specialization = SanitizeText(*in.Specialization)
	}
	if in.License != nil {
		profile.License = SanitizeText(*in.License)
	}
	if in.Firm != nil {
		profile.Firm = SanitizeText(*in.Firm)
	}
	if in.Bio != nil {
		profile.Bio = SanitizeRichText(*in.Bio)
	}
	if in.PerCaseCharge != nil {
		if *in.PerCaseCharge < 0 {
			return nil, NewValidationError("Per case charge cannot be negative.")
		}
		profile.PerCaseCharge = *in.PerCaseCharge
	}
	if profile.Specialization == "" || profile.License == "" {
		return nil, NewValidationError("Specialization and license are required for lawyers.")
	}

	if err := db.Save(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to save lawyer profile: %w", err)
	}
	user.LawyerProfile = &profile
	return &profile, nil
}
