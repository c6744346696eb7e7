// Package models holds the GORM entities shared by the auth, rbac and links
// packages.
package models

// All lists every entity in migration order.
func All() []any {
	return []any{
		&User{},
		&LoginSession{},
		&Role{},
		&RoleUser{},
		&Permission{},
		&Link{},
	}
}
