package migrations

import (
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"smmpanel/src/model"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "changeme123"
)

// AdminSeed holds the credentials of the account created on an empty users table.
type AdminSeed struct {
	Email    string
	Password string
}

// seedDefaultAdmin creates one admin account when no users exist yet.
func seedDefaultAdmin(seed AdminSeed) func(*gorm.DB) error {
	return func(db *gorm.DB) error {
		var count int64
		if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count > 0 {
			return nil
		}

		email := strings.ToLower(strings.TrimSpace(seed.Email))
		if email == "" {
			email = defaultAdminEmail
		}
		password := seed.Password
		if password == "" {
			password = defaultAdminPassword
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash default password: %w", err)
		}

		user := model.User{
			Email:     email,
			Password:  string(hashedPassword),
			Role:      model.UserRoleAdmin,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}

		logger.WithField("email", email).Warn("Seeded default admin user, change its password")
		return nil
	}
}
