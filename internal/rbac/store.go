package rbac

import (
	"context"
	"errors"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the role/permission repository. Collections come back fully
// loaded; nothing is fetched lazily.
type Store struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) *Store {
	return &Store{db: d}
}

// WithTx returns a Store bound to tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// RolesForUser returns every role held by userID with its permissions.
func (s *Store) RolesForUser(ctx context.Context, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("id IN (?)", s.heldRoleIDs(userID)).
		Order("id").
		Find(&roles).Error
	return roles, err
}

// heldRoleIDs is a subquery selecting the ids of roles linked to userID.
func (s *Store) heldRoleIDs(userID string) *gorm.DB {
	return s.db.Model(&models.RoleUser{}).Select("role_id").Where("user_id = ?", userID)
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string, page utils.Page) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("id IN (?)", s.heldRoleIDs(userID)).
		Order("id").
		Offset(page.Skip).Limit(page.Limit).
		Find(&roles).Error
	return roles, err
}

func (s *Store) ListRoles(ctx context.Context, page utils.Page) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Order("id").
		Offset(page.Skip).Limit(page.Limit).
		Find(&roles).Error
	return roles, err
}

func (s *Store) GetRole(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Role not found.")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// FindRoleByName returns the first role called name, or ErrNotFound.
func (s *Store) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").Where("name = ?", name).Order("id").First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Role not found.")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole inserts a role, attaches it to userIDs and gives it grants.
// Callers wanting atomicity run it on a transaction bound Store.
func (s *Store) CreateRole(ctx context.Context, name *string, userIDs []string, grants ...Grant) (*models.Role, error) {
	role := models.Role{ID: uuid.NewString(), Name: name}
	for _, g := range grants {
		role.Permissions = append(role.Permissions, newPermission(role.ID, g))
	}

	tx := s.db.WithContext(ctx)
	if err := tx.Create(&role).Error; err != nil {
		return nil, err
	}
	for _, uid := range userIDs {
		if err := tx.Create(&models.RoleUser{UserID: uid, RoleID: role.ID}).Error; err != nil {
			return nil, err
		}
	}
	return &role, nil
}

// DeleteRole removes a role together with its permissions and user links.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Role not found.")
			}
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.Permission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RoleUser{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
}

// AssignRole links userID to roleID. It reports false when the link already existed.
func (s *Store) AssignRole(ctx context.Context, userID, roleID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RoleUser{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.db.WithContext(ctx).Create(&models.RoleUser{UserID: userID, RoleID: roleID}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RemoveRole(ctx context.Context, userID, roleID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.RoleUser{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Role not found for user.")
	}
	return nil
}

// DetachUser drops every role link held by userID.
func (s *Store) DetachUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RoleUser{}).Error
}

// AddPermission attaches g to roleID. An identical grant on the same role is a conflict.
func (s *Store) AddPermission(ctx context.Context, roleID string, g Grant) (*models.Permission, error) {
	q := s.db.WithContext(ctx).Model(&models.Permission{}).
		Where("role_id = ? AND action = ? AND resource_name = ?", roleID, g.Action, g.Resource)
	if g.ResourceID == nil {
		q = q.Where("resource_id IS NULL")
	} else {
		q = q.Where("resource_id = ?", *g.ResourceID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Conflict("The role already has this permission.")
	}

	perm := newPermission(roleID, g)
	if err := s.db.WithContext(ctx).Create(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (s *Store) GetPermission(ctx context.Context, id string) (*models.Permission, error) {
	var perm models.Permission
	err := s.db.WithContext(ctx).First(&perm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Permission not found.")
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (s *Store) DeletePermission(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Permission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Permission not found.")
	}
	return nil
}

// DeleteResourcePermissions removes every permission scoped to one resource,
// e.g. when the link it points at is deleted.
func (s *Store) DeleteResourcePermissions(ctx context.Context, resource, id string) error {
	return s.db.WithContext(ctx).
		Where("resource_name = ? AND resource_id = ?", resource, id).
		Delete(&models.Permission{}).Error
}

func (s *Store) ListPermissions(ctx context.Context, page utils.Page) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).Order("id").Offset(page.Skip).Limit(page.Limit).Find(&perms).Error
	return perms, err
}

func (s *Store) PermissionsForRole(ctx context.Context, roleID string, page utils.Page) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("id").
		Offset(page.Skip).Limit(page.Limit).
		Find(&perms).Error
	return perms, err
}

func newPermission(roleID string, g Grant) models.Permission {
	return models.Permission{
		ID:           uuid.NewString(),
		RoleID:       roleID,
		Action:       g.Action,
		ResourceName: g.Resource,
		ResourceID:   g.ResourceID,
	}
}
