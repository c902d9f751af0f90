package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

// Users resolves authenticated callers.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// LoadActor returns the user with every platform role they hold.
func (r *Users) LoadActor(ctx context.Context, userID uuid.UUID) (models.Actor, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return models.Actor{}, notFound(err, "user")
	}
	var roles []models.Role
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Order("role_type").
		Pluck("role_type", &roles).Error
	if err != nil {
		return models.Actor{}, apperr.Wrap(err)
	}
	return models.Actor{UserID: user.ID, Roles: roles}, nil
}

// Ping checks the database is reachable.
func (r *Users) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
