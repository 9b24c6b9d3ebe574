package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

var categoryNames = []string{
	"Technology", "Programming", "Travel", "Food", "Music",
	"Books", "Science", "Health", "Finance", "Art",
}

// Seed populates the database with demo users, categories, posts and comments.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 50
	}

	f := NewFactory(db)

	categories := make([]*models.Category, 0, len(categoryNames))
	for _, name := range categoryNames {
		category, err := f.CreateCategory(name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		categories = append(categories, category)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
		users = append(users, user)
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rng.Intn(len(users))]

		// Leave some posts uncategorized to exercise the null-category path.
		var categoryID *uint
		if f.rng.Intn(5) > 0 {
			categoryID = &categories[f.rng.Intn(len(categories))].ID
		}

		post, err := f.CreatePost(author, categoryID)
		if err != nil {
			return fmt.Errorf("seed post %d: %w", i, err)
		}
		posts = append(posts, post)
	}

	commentCount := 0
	for _, post := range posts {
		for i := 0; i < f.rng.Intn(6); i++ {
			commenter := users[f.rng.Intn(len(users))]
			if _, err := f.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("seed comment on post %d: %w", post.ID, err)
			}
			commentCount++
		}
	}

	log.Printf("✅ Seeding complete: %d users, %d categories, %d posts, %d comments",
		len(users), len(categories), len(posts), commentCount)
	log.Printf("   All seeded accounts use the password %q", defaultSeedPassword)
	return nil
}

// clearData removes seedable rows in dependency order.
func clearData(db *gorm.DB) error {
	tables := []any{
		&models.Comment{},
		&models.Post{},
		&models.Category{},
		&models.Profile{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
