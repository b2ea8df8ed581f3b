// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered account. Username is immutable once created.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Username        string    `gorm:"size:64;uniqueIndex;not null" json:"username" yaml:"username"`
	PasswordHash    string    `gorm:"column:password_hash;not null" json:"-" yaml:"-"`
	DisplayName     string    `gorm:"size:100" json:"display_name" yaml:"display_name"`
	Bio             string    `gorm:"type:text" json:"bio" yaml:"bio"`
	ProfileMediaRef string    `json:"profile_media_ref,omitempty" yaml:"profile_media_ref,omitempty"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at" yaml:"created_at"`
}

// ProfileUpdate carries a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName     *string `json:"display_name,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileMediaRef *string `json:"profile_media_ref,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.ProfileMediaRef == nil
}

// Author identifies who a post or comment is attributed to. ID is nil for
// free-text authors accepted in open mode.
type Author struct {
	ID       *uint  `json:"id,omitempty"`
	Username string `json:"username"`
}

// AuthorFromUser builds an Author bound to a registered user.
func AuthorFromUser(u *User) Author {
	id := u.ID
	return Author{ID: &id, Username: u.Username}
}

// Anonymous reports whether the author has no registered account.
func (a Author) Anonymous() bool {
	return a.ID == nil
}
