package rbac

import (
	"context"
	"errors"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/EmpoweredVote/EV-Links/internal/utils"
)

// RoleSource loads the roles a user holds, permissions included.
type RoleSource interface {
	RolesForUser(ctx context.Context, userID string) ([]models.Role, error)
}

type Config struct {
	// AdminEmails is the allow-list of administrator addresses.
	AdminEmails []string
}

type Authorizer struct {
	roles  RoleSource
	admins map[string]struct{}
}

func NewAuthorizer(roles RoleSource, cfg Config) *Authorizer {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[utils.NormalizeEmail(email)] = struct{}{}
	}
	return &Authorizer{roles: roles, admins: admins}
}

// IsAdminEmail reports whether email is on the allow-list.
func (a *Authorizer) IsAdminEmail(email string) bool {
	_, ok := a.admins[utils.NormalizeEmail(email)]
	return ok
}

// HasPermission reports whether any role held by user owns a permission for
// action on resource. A permission without a resource id matches every id; a
// check without a resource id only matches such global permissions.
func (a *Authorizer) HasPermission(ctx context.Context, user *models.User, action, resource string, resourceID *string) (bool, error) {
	roles, err := a.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return false, err
	}
	return anyRoleGrants(roles, Grant{Action: action, Resource: resource, ResourceID: resourceID}), nil
}

// Policy is the access rule of one operation: any listed grant suffices.
type Policy struct {
	AnyOf []Grant
	// AdminBypass lets allow-listed emails and holders of the admin role through.
	AdminBypass bool
}

// Require returns nil when user satisfies p and an ErrForbidden otherwise.
// Roles are loaded once per call.
func (a *Authorizer) Require(ctx context.Context, user *models.User, p Policy) error {
	if user == nil {
		return apperr.Unauthenticated("Not authenticated.")
	}
	if p.AdminBypass && a.IsAdminEmail(user.Email) {
		return nil
	}

	roles, err := a.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if p.AdminBypass && holdsAdminRole(roles) {
		return nil
	}
	for _, g := range p.AnyOf {
		if anyRoleGrants(roles, g) {
			return nil
		}
	}
	return apperr.Forbidden("Not authorized to access this resource.")
}

// IsAdmin is the check behind admin-only routes: the allow-list, the admin
// role, or a global rw permission on the admin resource.
func (a *Authorizer) IsAdmin(ctx context.Context, user *models.User) (bool, error) {
	err := a.Require(ctx, user, Policy{
		AnyOf:       []Grant{Global(ActionReadWrite, ResourceAdmin)},
		AdminBypass: true,
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, apperr.ErrForbidden) {
		return false, nil
	}
	return false, err
}

func holdsAdminRole(roles []models.Role) bool {
	for _, r := range roles {
		if r.Name != nil && *r.Name == AdminRoleName {
			return true
		}
	}
	return false
}

func anyRoleGrants(roles []models.Role, want Grant) bool {
	for _, r := range roles {
		for _, p := range r.Permissions {
			if permits(p, want) {
				return true
			}
		}
	}
	return false
}

func permits(p models.Permission, want Grant) bool {
	if p.Action != want.Action || p.ResourceName != want.Resource {
		return false
	}
	if p.ResourceID == nil {
		return true
	}
	return want.ResourceID != nil && *p.ResourceID == *want.ResourceID
}
