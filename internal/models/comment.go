package models

import "time"

// Comment is an immutable reply attached to a post.
type Comment struct {
	ID             uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	PostID         uint      `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id" yaml:"post_id"`
	Post           *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
	AuthorUsername string    `gorm:"size:64;not null" json:"author_username" yaml:"author_username"`
	AuthorID       *uint     `gorm:"index" json:"author_id,omitempty" yaml:"author_id,omitempty"`
	Content        string    `gorm:"type:text;not null" json:"content" yaml:"content"`
	CreatedAt      time.Time `gorm:"not null;index:idx_comments_post_created,priority:2" json:"created_at" yaml:"created_at"`
}
