package models

import (
	"time"
)

// Post represents a blog post authored by a profile. Published controls
// whether the post shows up in public listings; PublishedAt is an explicit
// publish time, independent of the creation timestamp.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProfileID   uint      `gorm:"not null;index" json:"-"`
	Author      Profile   `gorm:"foreignKey:ProfileID" json:"author"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category"`
	Title       string    `gorm:"not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Image       string    `json:"image"`
	Published   bool      `gorm:"not null" json:"status"`
	PublishedAt time.Time `json:"published_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID returns the user that owns the post through its author profile.
// Callers must have preloaded Author.
func (p *Post) OwnerID() uint {
	return p.Author.UserID
}

// Category groups posts by name. Deleting a category detaches its posts
// rather than deleting them.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// Comment belongs to a post and is removed with it. Listings are ordered by
// creation time ascending.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null" json:"author"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"-"`
}

// OwnerID returns the comment author's user id.
func (c *Comment) OwnerID() uint {
	return c.UserID
}
