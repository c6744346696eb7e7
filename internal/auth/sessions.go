package auth

import (
	"context"
	"errors"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultSessionTTL = 60 * 24 * time.Hour
	sessionIDBytes    = 30
)

// SessionManager issues and checks login sessions. Sessions are never
// extended; a new login is the only way to get a fresh expiry.
type SessionManager struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionManager(d *gorm.DB, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{db: d, ttl: ttl, now: time.Now}
}

func (m *SessionManager) Create(ctx context.Context, user *models.User) (*models.LoginSession, error) {
	id, err := utils.NewToken(sessionIDBytes)
	if err != nil {
		return nil, err
	}
	session := models.LoginSession{
		ID:        id,
		UserID:    user.ID,
		ExpiresAt: m.now().UTC().Add(m.ttl),
	}
	if err := m.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Resolve returns the owner of an active session. Unknown, flagged and
// past-expiry sessions all fail with ErrUnauthenticated.
func (m *SessionManager) Resolve(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, apperr.Unauthenticated("Not authenticated.")
	}

	var session models.LoginSession
	err := m.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("Not authenticated.")
	}
	if err != nil {
		return nil, err
	}
	if !session.Active(m.now()) {
		return nil, apperr.Unauthenticated("Session expired")
	}

	var user models.User
	err = m.db.WithContext(ctx).First(&user, "id = ?", session.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("Not authenticated.")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Invalidate flags the session expired. Unknown ids are ignored.
func (m *SessionManager) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.db.WithContext(ctx).Model(&models.LoginSession{}).
		Where("id = ?", sessionID).
		Update("expired", true).Error
}
