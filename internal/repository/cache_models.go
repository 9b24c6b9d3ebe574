package repository

import (
	"time"

	"inkwell/internal/models"
)

// The API models hide sensitive columns from JSON (password hash, role flags,
// foreign keys), so they cannot double as the cache wire format: a round trip
// through json.Marshal would silently strip those fields on every cache hit.
// These mirrors serialize every column and convert back to the API models.

type cachedUser struct {
	ID          uint            `json:"id"`
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	IsActive    bool            `json:"is_active"`
	IsStaff     bool            `json:"is_staff"`
	IsSuperuser bool            `json:"is_superuser"`
	IsVerified  bool            `json:"is_verified"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Profile     *models.Profile `json:"profile,omitempty"`
}

func newCachedUser(u *models.User) cachedUser {
	return cachedUser{
		ID:          u.ID,
		Email:       u.Email,
		Password:    u.Password,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Profile:     u.Profile,
	}
}

func (c *cachedUser) toModel() *models.User {
	return &models.User{
		ID:          c.ID,
		Email:       c.Email,
		Password:    c.Password,
		IsActive:    c.IsActive,
		IsStaff:     c.IsStaff,
		IsSuperuser: c.IsSuperuser,
		IsVerified:  c.IsVerified,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Profile:     c.Profile,
	}
}

type cachedPost struct {
	ID          uint             `json:"id"`
	ProfileID   uint             `json:"profile_id"`
	Author      models.Profile   `json:"author"`
	CategoryID  *uint            `json:"category_id"`
	Category    *models.Category `json:"category"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Image       string           `json:"image"`
	Published   bool             `json:"published"`
	PublishedAt time.Time        `json:"published_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func newCachedPost(p *models.Post) cachedPost {
	return cachedPost{
		ID:          p.ID,
		ProfileID:   p.ProfileID,
		Author:      p.Author,
		CategoryID:  p.CategoryID,
		Category:    p.Category,
		Title:       p.Title,
		Content:     p.Content,
		Image:       p.Image,
		Published:   p.Published,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (c *cachedPost) toModel() models.Post {
	return models.Post{
		ID:          c.ID,
		ProfileID:   c.ProfileID,
		Author:      c.Author,
		CategoryID:  c.CategoryID,
		Category:    c.Category,
		Title:       c.Title,
		Content:     c.Content,
		Image:       c.Image,
		Published:   c.Published,
		PublishedAt: c.PublishedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func newCachedPosts(posts []models.Post) []cachedPost {
	out := make([]cachedPost, 0, len(posts))
	for i := range posts {
		out = append(out, newCachedPost(&posts[i]))
	}
	return out
}

func cachedPostsToModels(entries []cachedPost) []models.Post {
	out := make([]models.Post, 0, len(entries))
	for i := range entries {
		out = append(out, entries[i].toModel())
	}
	return out
}
