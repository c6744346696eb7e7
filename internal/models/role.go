package models

// Role bundles permissions. Personal roles created at registration or link
// creation have no name.
type Role struct {
	ID          string       `gorm:"primaryKey;size:36"`
	Name        *string      `gorm:"index"`
	Permissions []Permission `gorm:"foreignKey:RoleID"`
}

// RoleUser is the explicit many-to-many join between users and roles.
type RoleUser struct {
	UserID string `gorm:"primaryKey;size:36"`
	RoleID string `gorm:"primaryKey;size:36;index"`
}

// Permission grants Action on ResourceName. A nil ResourceID makes the grant
// global for that resource type.
type Permission struct {
	ID           string  `gorm:"primaryKey;size:36"`
	RoleID       string  `gorm:"not null;index"`
	Action       string  `gorm:"not null"`
	ResourceName string  `gorm:"not null;index"`
	ResourceID   *string `gorm:"index"`
}
