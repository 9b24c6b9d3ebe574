package service

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	t.Parallel()

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		svc := NewCategoryService(noopCategoryRepo())
		_, err := svc.Create(context.Background(), "  ")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		repo := noopCategoryRepo()
		repo.getByNameFn = func(_ context.Context, name string) (*models.Category, error) {
			return &models.Category{ID: 1, Name: name}, nil
		}
		svc := NewCategoryService(repo)
		_, err := svc.Create(context.Background(), "Technology")

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})

	t.Run("success trims name", func(t *testing.T) {
		t.Parallel()
		repo := noopCategoryRepo()
		repo.createFn = func(_ context.Context, c *models.Category) error {
			c.ID = 3
			return nil
		}
		svc := NewCategoryService(repo)
		category, err := svc.Create(context.Background(), " Technology ")
		require.NoError(t, err)
		assert.Equal(t, "Technology", category.Name)
		assert.Equal(t, uint(3), category.ID)
	})
}

func TestCategoryService_Delete_MissingIs404(t *testing.T) {
	t.Parallel()

	repo := noopCategoryRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Category, error) {
		return nil, models.NewNotFoundError("Category", id)
	}
	svc := NewCategoryService(repo)

	err := svc.Delete(context.Background(), 9)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
