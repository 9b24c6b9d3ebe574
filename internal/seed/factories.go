// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// defaultSeedPassword is shared by all seeded accounts so developers can log
// in as any of them.
const defaultSeedPassword = "Seed1234!"

// CreateUser persists a verified user with a filled-in profile.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultSeedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:      strings.ToLower(gofakeit.Email()),
		Password:   string(hash),
		IsActive:   true,
		IsVerified: true,
	}
	for _, override := range overrides {
		override(user)
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := &models.Profile{
			UserID:      user.ID,
			FirstName:   gofakeit.FirstName(),
			LastName:    gofakeit.LastName(),
			Image:       fmt.Sprintf("https://picsum.photos/seed/%s/256/256", gofakeit.UUID()),
			Description: gofakeit.Sentence(12),
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCategory persists a category with the given name.
func (f *Factory) CreateCategory(name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	if err := f.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// CreatePost persists a post authored by the user's profile with a realistic
// created/published time spread over the last 90 days.
func (f *Factory) CreatePost(user *models.User, categoryID *uint, overrides ...func(*models.Post)) (*models.Post, error) {
	createdAt := time.Now().Add(-time.Duration(f.rng.Intn(90*24)) * time.Hour)

	post := &models.Post{
		ProfileID:   user.Profile.ID,
		CategoryID:  categoryID,
		Title:       gofakeit.Sentence(5),
		Content:     gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		Published:   f.rng.Intn(10) > 1, // roughly 80% published
		PublishedAt: createdAt,
		CreatedAt:   createdAt,
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on the post by the given user, dated after
// the post itself.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Body:      gofakeit.Sentence(10),
		CreatedAt: post.CreatedAt.Add(time.Duration(1+f.rng.Intn(72)) * time.Hour),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}
