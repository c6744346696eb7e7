package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
}

type Service struct {
	db       *gorm.DB
	users    *Store
	sessions *SessionManager
	roles    *rbac.Store
	authz    *rbac.Authorizer
}

func NewService(d *gorm.DB, users *Store, sessions *SessionManager, roles *rbac.Store, authz *rbac.Authorizer) *Service {
	return &Service{db: d, users: users, sessions: sessions, roles: roles, authz: authz}
}

// Register creates the account and its personal role (rw on itself). An
// allow-listed email also receives the admin role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if req.Password != req.PasswordConfirm {
		return nil, apperr.Validation("Passwords do not match.")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:             uuid.NewString(),
		Email:          utils.NormalizeEmail(req.Email),
		Username:       req.Username,
		Name:           req.Name,
		HashedPassword: string(hashed),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, roles := s.users.WithTx(tx), s.roles.WithTx(tx)

		taken, err := users.Taken(ctx, user.Email, user.Username)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("A user with this email or username already exists.")
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}

		self := []string{user.ID}
		if _, err := roles.CreateRole(ctx, nil, self, rbac.On(rbac.ActionReadWrite, rbac.ResourceUser, user.ID)); err != nil {
			return err
		}
		if s.authz.IsAdminEmail(user.Email) {
			name := rbac.AdminRoleName
			_, err := roles.CreateRole(ctx, &name, self,
				rbac.Global(rbac.ActionReadWrite, rbac.ResourceUser),
				rbac.Global(rbac.ActionReadWrite, rbac.ResourceRole),
				rbac.Global(rbac.ActionReadWrite, rbac.ResourceAdmin),
			)
			if err != nil {
				return err
			}
			slog.Info("granted admin role at registration", "user_id", user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*models.LoginSession, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("Invalid credentials.")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated("Invalid credentials.")
	}
	return s.sessions.Create(ctx, user)
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Invalidate(ctx, sessionID)
}

// UpdatePassword replaces the password after re-checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, user *models.User, req UpdatePasswordRequest) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.CurrentPassword)); err != nil {
		return apperr.Unauthenticated("Invalid current password.")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hashed))
}
