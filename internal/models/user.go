// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that authors posts.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Posts     []Post    `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
}

// DisplayName returns the full name when one is set, otherwise the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// Is reports whether u and other refer to the same stored user.
// A nil receiver or argument never matches.
func (u *User) Is(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.ID != 0 && u.ID == other.ID
}
