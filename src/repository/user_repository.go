package repository

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"smmpanel/src/database"
	"smmpanel/src/model"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *GormUserRepository {
	logger.WithField("component", "GormUserRepository").
		Info("Creating new GormUserRepository with MainDB")

	return &GormUserRepository{
		db: database.MainDB,
	}
}

func (r *GormUserRepository) WithDB(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetUserByEmail looks a user up by its normalized email.
// Returns gorm.ErrRecordNotFound when absent.
func (r *GormUserRepository) GetUserByEmail(
	ctx context.Context,
	email string,
) (*model.User, error) {

	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error

	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *GormUserRepository) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePassword stores an already hashed password.
func (r *GormUserRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashed).Error
}
