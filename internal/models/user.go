package models

import "time"

type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Name           string    `gorm:"not null" json:"name"`
	HashedPassword string    `gorm:"not null" json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// LoginSession is the server side half of the session cookie. Rows are flagged
// expired rather than deleted.
type LoginSession struct {
	ID        string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Expired   bool      `gorm:"not null;default:false" json:"expired"`
	CreatedAt time.Time `json:"-"`
}

// Active reports whether the session can still authenticate a request at now.
func (s LoginSession) Active(now time.Time) bool {
	return !s.Expired && s.ExpiresAt.After(now)
}
