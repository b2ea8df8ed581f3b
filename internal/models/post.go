package models

import "time"

// RepostPrefix marks the content of a materialized repost.
const RepostPrefix = "Repost: "

// Post is a feed entry. AuthorUsername is a snapshot taken at creation time and
// is never rewritten. LikeCount and RepostCount only ever grow.
type Post struct {
	ID             uint      `gorm:"primaryKey;index:idx_posts_feed,priority:2,sort:desc" json:"id" yaml:"id"`
	AuthorUsername string    `gorm:"size:64;not null;index" json:"author_username" yaml:"author_username"`
	AuthorID       *uint     `gorm:"index" json:"author_id,omitempty" yaml:"author_id,omitempty"`
	Content        string    `gorm:"type:text;not null;default:''" json:"content" yaml:"content"`
	MediaRef       string    `gorm:"not null;default:''" json:"media_ref,omitempty" yaml:"media_ref,omitempty"`
	LikeCount      int64     `gorm:"not null;default:0;check:chk_posts_like_count,like_count >= 0" json:"like_count" yaml:"like_count"`
	RepostCount    int64     `gorm:"not null;default:0;check:chk_posts_repost_count,repost_count >= 0" json:"repost_count" yaml:"repost_count"`
	RepostOfID     *uint     `gorm:"index" json:"repost_of_id,omitempty" yaml:"repost_of_id,omitempty"`
	CreatedAt      time.Time `gorm:"not null;index:idx_posts_feed,priority:1,sort:desc" json:"created_at" yaml:"created_at"`
}

// FeedCursor is a keyset position in feed order (created_at DESC, id DESC).
type FeedCursor struct {
	CreatedAt time.Time
	ID        uint
}

// CursorOf returns the feed position just after p.
func CursorOf(p *Post) FeedCursor {
	return FeedCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// FeedItem is a post joined with its comments for feed rendering.
type FeedItem struct {
	*Post
	Comments []*Comment `json:"comments,omitempty" yaml:"comments,omitempty"`
}
