package repository

import (
	"context"
	"errors"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	ListPublished(ctx context.Context, categoryID *uint, limit, offset int) ([]models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// ListPublished returns published posts only, newest first. The unfiltered
// first page is served through the cache since it backs the landing view.
func (r *postRepository) ListPublished(ctx context.Context, categoryID *uint, limit, offset int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var posts []models.Post
	fetch := func() error {
		q := r.db.WithContext(ctx).
			Preload("Author").
			Preload("Category").
			Where("published = ?", true).
			Order("published_at DESC").
			Limit(limit).
			Offset(offset)
		if categoryID != nil {
			q = q.Where("category_id = ?", *categoryID)
		}
		if err := q.Find(&posts).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	if categoryID == nil && offset == 0 && limit == 20 {
		var entries []cachedPost
		err := cache.Aside(ctx, cache.PostsListKey, &entries, cache.ListTTL, func() error {
			if err := fetch(); err != nil {
				return err
			}
			entries = newCachedPosts(posts)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return cachedPostsToModels(entries), nil
	}

	if err := fetch(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var entry cachedPost
	key := cache.PostKey(id)

	err := cache.Aside(ctx, key, &entry, cache.PostTTL, func() error {
		var post models.Post
		if err := r.db.WithContext(ctx).
			Preload("Author").
			Preload("Category").
			First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		entry = newCachedPost(&post)
		return nil
	})

	if err != nil {
		return nil, err
	}
	post := entry.toModel()
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete removes the post and its comments in one transaction. The comment
// delete is explicit rather than relying on database-level cascade so the
// behavior holds across drivers.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}
