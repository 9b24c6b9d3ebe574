package service

import (
	"context"
	"strings"

	"inkwell/internal/authz"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// CommentService implements per-post comment threads.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
}

// NewCommentService creates a CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, users repository.UserRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts, users: users}
}

// ListByPost returns the post's comments oldest first. An unknown post yields
// an empty thread, not an error.
func (s *CommentService) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

// Create attaches a comment to the post, authored by the caller. The target
// post must exist.
func (s *CommentService) Create(ctx context.Context, userID, postID uint, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, models.NewFieldValidationError("Invalid input", map[string]string{"body": "body is required"})
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: userID,
		Body:   body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment. Permitted for the comment's author, and for
// superusers moderating the thread.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if !authz.CanWrite(actorID, comment) {
		actor, err := s.users.GetByID(ctx, actorID)
		if err != nil || !actor.IsSuperuser {
			return models.NewForbiddenError(forbiddenMessage)
		}
	}
	return s.comments.Delete(ctx, commentID)
}
