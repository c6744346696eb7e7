// Package users is the administration surface for accounts, roles and
// permissions.
package users

import (
	"context"
	"log/slog"

	"github.com/EmpoweredVote/EV-Links/internal/auth"
	"github.com/EmpoweredVote/EV-Links/internal/links"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
	"gorm.io/gorm"
)

type CreateRoleRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type CreatePermissionRequest struct {
	RoleID       string  `json:"role_id" validate:"required"`
	ActionName   string  `json:"action_name" validate:"required,oneof=r rw"`
	ResourceName string  `json:"resource_name" validate:"required,oneof=user role link admin"`
	ResourceID   *string `json:"resource_id"`
}

// GrantRequest gives one user a single permission through a new role.
type GrantRequest struct {
	ActionName   string  `json:"action_name" validate:"required,oneof=r rw"`
	ResourceName string  `json:"resource_name" validate:"required,oneof=user role link admin"`
	ResourceID   *string `json:"resource_id"`
	RoleName     *string `json:"role_name" validate:"omitempty,max=64"`
}

var (
	readUsers  = rbac.Policy{AnyOf: []rbac.Grant{rbac.Global(rbac.ActionRead, rbac.ResourceUser), rbac.Global(rbac.ActionReadWrite, rbac.ResourceUser)}, AdminBypass: true}
	writeUsers = rbac.Policy{AnyOf: []rbac.Grant{rbac.Global(rbac.ActionReadWrite, rbac.ResourceUser)}, AdminBypass: true}
	readRoles  = rbac.Policy{AnyOf: []rbac.Grant{rbac.Global(rbac.ActionRead, rbac.ResourceRole), rbac.Global(rbac.ActionReadWrite, rbac.ResourceRole)}, AdminBypass: true}
	writeRoles = rbac.Policy{AnyOf: []rbac.Grant{rbac.Global(rbac.ActionReadWrite, rbac.ResourceRole)}, AdminBypass: true}

	// Inspecting a role's permissions has no admin bypass.
	inspectRole = rbac.Policy{AnyOf: readRoles.AnyOf}
	// Granting arbitrary permissions needs the explicit admin permission.
	grantAny = rbac.Policy{AnyOf: []rbac.Grant{rbac.Global(rbac.ActionReadWrite, rbac.ResourceAdmin)}}
)

type Service struct {
	db    *gorm.DB
	users *auth.Store
	roles *rbac.Store
	links *links.Store
	authz *rbac.Authorizer
}

func NewService(d *gorm.DB, users *auth.Store, roles *rbac.Store, ls *links.Store, authz *rbac.Authorizer) *Service {
	return &Service{db: d, users: users, roles: roles, links: ls, authz: authz}
}

func (s *Service) ListUsers(ctx context.Context, caller *models.User, page utils.Page) ([]models.User, error) {
	if err := s.authz.Require(ctx, caller, readUsers); err != nil {
		return nil, err
	}
	return s.users.List(ctx, page)
}

// DeleteUser removes the account with its sessions, role links, links and
// the permissions scoped to them, in one transaction.
func (s *Service) DeleteUser(ctx context.Context, caller *models.User, userID string) error {
	if err := s.authz.Require(ctx, caller, writeUsers); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, roles, ls := s.users.WithTx(tx), s.roles.WithTx(tx), s.links.WithTx(tx)

		if _, err := users.FindByID(ctx, userID); err != nil {
			return err
		}
		ids, err := ls.IDsByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := links.DeleteWithPermissions(ctx, ls, roles, id); err != nil {
				return err
			}
		}
		if err := roles.DeleteResourcePermissions(ctx, rbac.ResourceUser, userID); err != nil {
			return err
		}
		if err := roles.DetachUser(ctx, userID); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}
	slog.Info("user deleted", "user_id", userID, "by", caller.ID)
	return nil
}

func (s *Service) UserRoles(ctx context.Context, caller *models.User, userID string, page utils.Page) ([]models.Role, error) {
	if err := s.authz.Require(ctx, caller, readUsers); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.roles.ListRolesForUser(ctx, userID, page)
}

// AssignRole links a role to a user. It reports false when the user already
// held it.
func (s *Service) AssignRole(ctx context.Context, caller *models.User, userID, roleID string) (bool, error) {
	if err := s.authz.Require(ctx, caller, writeUsers); err != nil {
		return false, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return false, err
	}
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return false, err
	}
	return s.roles.AssignRole(ctx, userID, roleID)
}

func (s *Service) RemoveRole(ctx context.Context, caller *models.User, userID, roleID string) error {
	if err := s.authz.Require(ctx, caller, writeUsers); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.roles.RemoveRole(ctx, userID, roleID)
}

func (s *Service) ListRoles(ctx context.Context, caller *models.User, page utils.Page) ([]models.Role, error) {
	if err := s.authz.Require(ctx, caller, readRoles); err != nil {
		return nil, err
	}
	return s.roles.ListRoles(ctx, page)
}

func (s *Service) ListPermissions(ctx context.Context, caller *models.User, page utils.Page) ([]models.Permission, error) {
	if err := s.authz.Require(ctx, caller, readRoles); err != nil {
		return nil, err
	}
	return s.roles.ListPermissions(ctx, page)
}

func (s *Service) RolePermissions(ctx context.Context, caller *models.User, roleID string, page utils.Page) ([]models.Permission, error) {
	if err := s.authz.Require(ctx, caller, inspectRole); err != nil {
		return nil, err
	}
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.roles.PermissionsForRole(ctx, roleID, page)
}

func (s *Service) CreateRole(ctx context.Context, caller *models.User, req CreateRoleRequest) (*models.Role, error) {
	if err := s.authz.Require(ctx, caller, writeRoles); err != nil {
		return nil, err
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	name := req.Name
	return s.roles.CreateRole(ctx, &name, nil)
}

func (s *Service) DeleteRole(ctx context.Context, caller *models.User, roleID string) error {
	if err := s.authz.Require(ctx, caller, writeRoles); err != nil {
		return err
	}
	return s.roles.DeleteRole(ctx, roleID)
}

func (s *Service) CreatePermission(ctx context.Context, caller *models.User, req CreatePermissionRequest) (*models.Permission, error) {
	if err := s.authz.Require(ctx, caller, writeRoles); err != nil {
		return nil, err
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.roles.GetRole(ctx, req.RoleID); err != nil {
		return nil, err
	}
	return s.roles.AddPermission(ctx, req.RoleID, grantOf(req.ActionName, req.ResourceName, req.ResourceID))
}

func (s *Service) DeletePermission(ctx context.Context, caller *models.User, permissionID string) error {
	if err := s.authz.Require(ctx, caller, writeRoles); err != nil {
		return err
	}
	return s.roles.DeletePermission(ctx, permissionID)
}

// GrantToUser creates a role, optionally named, that holds exactly one
// permission and attaches it to the user.
func (s *Service) GrantToUser(ctx context.Context, caller *models.User, userID string, req GrantRequest) (*models.Role, error) {
	if err := s.authz.Require(ctx, caller, grantAny); err != nil {
		return nil, err
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	var role *models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		role, err = s.roles.WithTx(tx).CreateRole(ctx, req.RoleName, []string{userID},
			grantOf(req.ActionName, req.ResourceName, req.ResourceID))
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("permission granted", "user_id", userID, "action", req.ActionName, "resource", req.ResourceName, "by", caller.ID)
	return role, nil
}

func grantOf(action, resource string, id *string) rbac.Grant {
	if id != nil && *id == "" {
		id = nil
	}
	return rbac.Grant{Action: action, Resource: resource, ResourceID: id}
}

