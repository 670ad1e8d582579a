package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"lawconnect/models"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedAdminFromEnv creates an admin user from ADMIN_EMAIL and ADMIN_PASSWORD
// when both are set and no admin exists yet.
func SeedAdminFromEnv(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" || password == "" {
		return nil
	}
	if name == "" {
		name = "Administrator"
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("[SEED] Admin user already exists, skipping seed")
		return nil
	}

	var existing models.User
	if err := db.Where("email = ?", strings.ToLower(email)).First(&existing).Error; err == nil {
		log.Printf("[SEED] User with email %s already exists, skipping admin seed", email)
		return nil
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(email),
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		return err
	}

	log.Printf("[SEED] Created admin user: %s", email)
	return nil
}

// Fixtures is the YAML layout accepted by `lawctl seed`
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Cases []CaseFixture `yaml:"cases"`
}

type UserFixture struct {
	Name           string `yaml:"name"`
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
	Role           string `yaml:"role"`
	Phone          string `yaml:"phone"`
	Specialization string `yaml:"specialization"`
	License        string `yaml:"license"`
	Firm           string `yaml:"firm"`
	PerCaseCharge  string `yaml:"per_case_charge"`
}

// CaseFixture references users by email. A case with a lawyer is accepted
// by that lawyer, which also opens the case thread.
type CaseFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Client      string `yaml:"client"`
	Lawyer      string `yaml:"lawyer"`
}

// SeedResult counts what a seed run wrote
type SeedResult struct {
	Users   int
	Skipped int
	Cases   int
}

// LoadFixtures parses YAML fixtures
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}
	return &f, nil
}

// SeedFixtures creates the fixture users and cases. Users whose email is
// already registered are skipped and reused for case references.
func SeedFixtures(ctx context.Context, db *gorm.DB, f *Fixtures) (SeedResult, error) {
	var res SeedResult
	byEmail := map[string]*models.User{}

	for _, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		var existing models.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			byEmail[email] = &existing
			res.Skipped++
			continue
		}

		user, err := RegisterUser(ctx, db, RegistrationInput{
			Username:        u.Name,
			Email:           email,
			Password:        u.Password,
			ConfirmPassword: u.Password,
			Phone:           u.Phone,
			Role:            u.Role,
			Specialization:  u.Specialization,
			License:         u.License,
			Firm:            u.Firm,
		})
		if err != nil {
			return res, fmt.Errorf("user %s: %w", email, err)
		}
		if u.PerCaseCharge != "" && user.IsLawyer() {
			cents, err := ParseAmount(u.PerCaseCharge)
			if err != nil {
				return res, fmt.Errorf("user %s: %w", email, err)
			}
			if err := db.Model(&models.LawyerProfile{}).Where("user_id = ?", user.ID).
				Update("per_case_charge", cents).Error; err != nil {
				return res, err
			}
		}
		byEmail[email] = user
		res.Users++
	}

	lookup := func(email string) (*models.User, error) {
		email = strings.ToLower(strings.TrimSpace(email))
		if u, ok := byEmail[email]; ok {
			return u, nil
		}
		var u models.User
		if err := db.Where("email = ?", email).First(&u).Error; err != nil {
			return nil, fmt.Errorf("unknown user %q", email)
		}
		byEmail[email] = &u
		return &u, nil
	}

	for _, cf := range f.Cases {
		client, err := lookup(cf.Client)
		if err != nil {
			return res, fmt.Errorf("case %q: %w", cf.Title, err)
		}
		c, err := CreateCase(db, client, CaseInput{Title: cf.Title, Description: cf.Description, Type: cf.Type})
		if err != nil {
			return res, fmt.Errorf("case %q: %w", cf.Title, err)
		}
		if cf.Lawyer != "" {
			lawyer, err := lookup(cf.Lawyer)
			if err != nil {
				return res, fmt.Errorf("case %q: %w", cf.Title, err)
			}
			if _, err := AcceptCase(db, lawyer, c.ID); err != nil {
				return res, fmt.Errorf("case %q: %w", cf.Title, err)
			}
		}
		res.Cases++
	}
	return res, nil
}
