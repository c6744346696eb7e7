package auth

import (
	"context"
	"errors"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"gorm.io/gorm"
)

// Store is the credential store.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("A user with this email or username already exists.")
	}
	return err
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

// FindByEmail looks the user up by case-folded address.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", utils.NormalizeEmail(email))
}

func (s *Store) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Taken reports whether email or username already belongs to someone.
func (s *Store) Taken(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", utils.NormalizeEmail(email), username).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) List(ctx context.Context, page utils.Page) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at, id").Offset(page.Skip).Limit(page.Limit).Find(&users).Error
	return users, err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hashed string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("hashed_password", hashed).Error
}

// Delete removes the user row and every login session it owns.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.LoginSession{}).Error; err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", userID).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}
