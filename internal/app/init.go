package app

import (
	"fmt"
	"strings"

	"github.com/zinal-app/zinal/internal/config"
	"github.com/zinal-app/zinal/internal/models"
	"github.com/zinal-app/zinal/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HasUserInitialized reports whether at least one user account exists.
func HasUserInitialized(conn *gorm.DB) (bool, error) {
	var count int64
	if errCount := conn.Model(&models.User{}).Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("count users: %w", errCount)
	}
	return count > 0, nil
}

// EnsureAdminUser creates the bootstrap admin account from environment
// credentials when the users table is empty. It is a no-op when users
// already exist or when the credentials are not set.
func EnsureAdminUser(conn *gorm.DB, bootstrap config.AdminBootstrap) error {
	username := strings.TrimSpace(bootstrap.Username)
	password := strings.TrimSpace(bootstrap.Password)
	if username == "" || password == "" {
		return nil
	}

	initialized, errInit := HasUserInitialized(conn)
	if errInit != nil {
		return errInit
	}
	if initialized {
		return nil
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("hash admin password: %w", errHash)
	}

	now := nowUTC()
	admin := models.User{
		Username:  username,
		Email:     username + "@localhost",
		Password:  hash,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("create admin user: %w", errCreate)
	}
	log.Infof("created bootstrap admin user %q", username)
	return nil
}
