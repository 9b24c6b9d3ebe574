package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/authz"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const forbiddenMessage = "You do not have permission to perform this action."

// PostService implements the post catalog: public reads, owner-gated writes.
type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, categories repository.CategoryRepository, users repository.UserRepository) *PostService {
	return &PostService{posts: posts, categories: categories, users: users}
}

// List returns published posts, optionally narrowed to an exact category
// name. An unknown category name is a 404, not an empty page.
func (s *PostService) List(ctx context.Context, categoryName string, limit, offset int) ([]models.Post, error) {
	var categoryID *uint
	if categoryName != "" {
		category, err := s.categories.GetByName(ctx, categoryName)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, models.NewNotFoundMessage(fmt.Sprintf("Category %q not found", categoryName))
		}
		categoryID = &category.ID
	}
	return s.posts.ListPublished(ctx, categoryID, limit, offset)
}

// Get returns a single post regardless of publish state; drafts are reachable
// by direct link, matching the listing-only publish gate.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// CreatePostInput carries the post form fields. The author is never taken
// from the payload; it is derived from the authenticated caller.
type CreatePostInput struct {
	Title       string
	Content     string
	Image       string
	CategoryID  *uint
	Published   bool
	PublishedAt time.Time
}

// Create stores a new post authored by the caller's profile.
func (s *PostService) Create(ctx context.Context, userID uint, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewFieldValidationError("Invalid input", map[string]string{"title": "title is required"})
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewFieldValidationError("Invalid input", map[string]string{"content": "content is required"})
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	profile, err := s.users.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	publishedAt := in.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	post := &models.Post{
		ProfileID:   profile.ID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Content:     in.Content,
		Image:       in.Image,
		Published:   in.Published,
		PublishedAt: publishedAt,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// UpdatePostInput carries the editable post fields; nil means unchanged.
type UpdatePostInput struct {
	Title         *string
	Content       *string
	Image         *string
	CategoryID    *uint
	ClearCategory bool
	Published     *bool
	PublishedAt   *time.Time
}

// Update applies the given fields. Only the post's author may update it.
func (s *PostService) Update(ctx context.Context, userID, postID uint, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !authz.CanWrite(userID, post) {
		return nil, models.NewForbiddenError(forbiddenMessage)
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewFieldValidationError("Invalid input", map[string]string{"title": "title is required"})
		}
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Image != nil {
		post.Image = *in.Image
	}
	if in.ClearCategory {
		post.CategoryID = nil
		post.Category = nil
	} else if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		post.CategoryID = in.CategoryID
	}
	if in.Published != nil {
		post.Published = *in.Published
	}
	if in.PublishedAt != nil {
		post.PublishedAt = *in.PublishedAt
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// Delete removes the post and its comments. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !authz.CanWrite(userID, post) {
		return models.NewForbiddenError(forbiddenMessage)
	}
	return s.posts.Delete(ctx, postID)
}
