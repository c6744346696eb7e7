// Package links stores short links and serves the public label redirect.
package links

import (
	"context"
	"errors"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"gorm.io/gorm"
)

var errDuplicateLabel = apperr.Conflict("A link with this label already exists.")

type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) Create(ctx context.Context, link *models.Link) error {
	err := s.db.WithContext(ctx).Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateLabel
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*models.Link, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByLabel is a single lookup on the unique label index.
func (s *Store) GetByLabel(ctx context.Context, label string) (*models.Link, error) {
	return s.first(ctx, "label = ?", label)
}

func (s *Store) first(ctx context.Context, query string, args ...any) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Where(query, args...).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Link not found.")
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// LabelTaken reports whether label is used by a link other than exceptID.
func (s *Store) LabelTaken(ctx context.Context, label, exceptID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Link{}).Where("label = ?", label)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (s *Store) ListByUser(ctx context.Context, userID string, page utils.Page) ([]models.Link, error) {
	links := []models.Link{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Offset(page.Skip).Limit(page.Limit).
		Find(&links).Error
	return links, err
}

// Update writes label, url and description of link.
func (s *Store) Update(ctx context.Context, link *models.Link) error {
	err := s.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ?", link.ID).
		Select("label", "url", "description").
		Updates(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateLabel
	}
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Link{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Link not found.")
	}
	return nil
}

// IDsByUser lists the ids of every link authored by userID.
func (s *Store) IDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Link{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}
