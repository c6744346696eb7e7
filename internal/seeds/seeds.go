// Package seeds loads role definitions from YAML and applies them to the
// database. Existing roles, permissions and memberships are left alone.
package seeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EmpoweredVote/EV-Links/internal/apperr"
	"github.com/EmpoweredVote/EV-Links/internal/auth"
	"github.com/EmpoweredVote/EV-Links/internal/rbac"
	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
)

// File is the root of a roles.yaml document:
//
//	roles:
//	  - name: moderators
//	    permissions:
//	      - {action: rw, resource: link}
//	    users: [mod@example.com]
type File struct {
	Roles []RoleSpec `yaml:"roles"`
}

type RoleSpec struct {
	Name        string           `yaml:"name"`
	Permissions []PermissionSpec `yaml:"permissions"`
	Users       []string         `yaml:"users"`
}

type PermissionSpec struct {
	Action     string  `yaml:"action"`
	Resource   string  `yaml:"resource"`
	ResourceID *string `yaml:"resource_id"`
}

func (p PermissionSpec) grant() rbac.Grant {
	return rbac.Grant{Action: p.Action, Resource: p.Resource, ResourceID: p.ResourceID}
}

// Report counts what SeedRoles changed.
type Report struct {
	RolesCreated     int
	PermissionsAdded int
	UsersAssigned    int
	UsersMissing     int
}

// Parse decodes and validates a roles document.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse roles file: %w", err)
	}
	return f, f.Validate()
}

func (f File) Validate() error {
	if len(f.Roles) == 0 {
		return errors.New("no roles defined")
	}
	seen := map[string]bool{}
	for i, r := range f.Roles {
		if r.Name == "" {
			return fmt.Errorf("roles[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("roles[%d]: duplicate role %q", i, r.Name)
		}
		seen[r.Name] = true
		for j, p := range r.Permissions {
			if !rbac.ValidAction(p.Action) {
				return fmt.Errorf("roles[%d].permissions[%d]: unknown action %q", i, j, p.Action)
			}
			if !rbac.ValidResource(p.Resource) {
				return fmt.Errorf("roles[%d].permissions[%d]: unknown resource %q", i, j, p.Resource)
			}
		}
	}
	return nil
}

// SeedRoles creates missing roles by name, then adds missing permissions and
// memberships, all in one transaction. Unknown user emails are skipped.
func SeedRoles(ctx context.Context, gdb *gorm.DB, f File) (Report, error) {
	var rep Report
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rep = Report{}
		roles, users := rbac.NewStore(tx), auth.NewStore(tx)

		for _, spec := range f.Roles {
			role, err := roles.FindRoleByName(ctx, spec.Name)
			if errors.Is(err, apperr.ErrNotFound) {
				name := spec.Name
				role, err = roles.CreateRole(ctx, &name, nil)
				if err == nil {
					rep.RolesCreated++
					slog.Info("role created", "role", spec.Name)
				}
			}
			if err != nil {
				return fmt.Errorf("role %s: %w", spec.Name, err)
			}

			for _, p := range spec.Permissions {
				_, err := roles.AddPermission(ctx, role.ID, p.grant())
				if errors.Is(err, apperr.ErrConflict) {
					continue
				}
				if err != nil {
					return fmt.Errorf("role %s: add permission: %w", spec.Name, err)
				}
				rep.PermissionsAdded++
			}

			for _, email := range spec.Users {
				user, err := users.FindByEmail(ctx, email)
				if errors.Is(err, apperr.ErrNotFound) {
					rep.UsersMissing++
					slog.Warn("user not found, skipping", "role", spec.Name, "email", email)
					continue
				}
				if err != nil {
					return fmt.Errorf("role %s: user %s: %w", spec.Name, email, err)
				}
				added, err := roles.AssignRole(ctx, user.ID, role.ID)
				if err != nil {
					return fmt.Errorf("role %s: assign %s: %w", spec.Name, email, err)
				}
				if added {
					rep.UsersAssigned++
				}
			}
		}
		return nil
	})
	return rep, err
}
