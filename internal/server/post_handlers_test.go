package server

import (
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, published bool, mutate ...func(*models.Post)) *models.Post {
	t.Helper()
	post := &models.Post{
		ProfileID:   author.Profile.ID,
		Title:       "a title",
		Content:     "the full content",
		Published:   published,
		PublishedAt: time.Now().Add(-time.Hour),
	}
	for _, m := range mutate {
		m(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestListPosts_PublishedOnly(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	published := createPost(t, s.db, author, true)
	createPost(t, s.db, author, false)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/posts", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	items := decodeList(t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, float64(published.ID), items[0]["id"])
}

func TestListPosts_Projection(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	require.NoError(t, s.db.Model(author.Profile).Update("first_name", "Ada").Error)
	category := createCategory(t, s.db, "Technology")
	post := createPost(t, s.db, author, true, func(p *models.Post) {
		p.CategoryID = &category.ID
	})

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/posts", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	items := decodeList(t, resp)
	require.Len(t, items, 1)
	item := items[0]

	// Listings link to the detail view and omit the body.
	assert.Equal(t, "http://api.test/api/v1/posts/1", item["absolute_url"])
	assert.NotContains(t, item, "content")

	nested, ok := item["category"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Technology", nested["name"])

	authorObj, ok := item["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", authorObj["first_name"])

	// The detail view is the inverse: body included, no self link.
	resp = doJSON(t, app, fiber.MethodGet, "/api/v1/posts/1", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	detail := decodeBody(t, resp)
	assert.Equal(t, post.Content, detail["content"])
	assert.NotContains(t, detail, "absolute_url")
}

func TestListPosts_CategoryFilter(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	tech := createCategory(t, s.db, "Technology")
	createCategory(t, s.db, "Travel")
	inTech := createPost(t, s.db, author, true, func(p *models.Post) {
		p.CategoryID = &tech.ID
	})
	createPost(t, s.db, author, true)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/posts?category=Technology", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := decodeList(t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, float64(inTech.ID), items[0]["id"])
}

func TestListPosts_UnknownCategory(t *testing.T) {
	app, _, _ := newTestServer(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/posts?category=Nope", nil, "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, `Category "Nope" not found`, decodeBody(t, resp)["detail"])
}

func TestGetPost_DraftIsReachable(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	draft := createPost(t, s.db, author, false)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/posts/1", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(draft.ID), decodeBody(t, resp)["id"])
}

func TestGetPost_NotFound(t *testing.T) {
	app, _, _ := newTestServer(t)

	resp := doJSON(t, app, fiber.MethodGet, "/api/v1/posts/99", nil, "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreatePost(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	category := createCategory(t, s.db, "Technology")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/posts", fiber.Map{
		"title":    "hello",
		"content":  "world",
		"category": category.ID,
		"status":   true,
	}, bearer(t, s, author.ID))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "hello", body["title"])
	assert.Equal(t, "world", body["content"])
	nested, ok := body["category"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Technology", nested["name"])
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	app, _, _ := newTestServer(t)

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/posts", fiber.Map{
		"title":   "hello",
		"content": "world",
	}, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePost_Validation(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")

	resp := doJSON(t, app, fiber.MethodPost, "/api/v1/posts", fiber.Map{
		"content": "world",
	}, bearer(t, s, author.ID))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdatePost_OwnerOnly(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	stranger := createUser(t, s.db, "stranger@example.com", "Zz12345#")
	createPost(t, s.db, author, true)

	resp := doJSON(t, app, fiber.MethodPut, "/api/v1/posts/1", fiber.Map{
		"title": "hijacked",
	}, bearer(t, s, stranger.ID))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You do not have permission to perform this action.", decodeBody(t, resp)["detail"])

	resp = doJSON(t, app, fiber.MethodPut, "/api/v1/posts/1", fiber.Map{
		"title": "revised",
	}, bearer(t, s, author.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "revised", decodeBody(t, resp)["title"])
}

func TestUpdatePost_ClearCategory(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	category := createCategory(t, s.db, "Technology")
	createPost(t, s.db, author, true, func(p *models.Post) {
		p.CategoryID = &category.ID
	})

	resp := doJSON(t, app, fiber.MethodPatch, "/api/v1/posts/1", fiber.Map{
		"clear_category": true,
	}, bearer(t, s, author.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, decodeBody(t, resp)["category"])
}

func TestDeletePost_RemovesComments(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	post := createPost(t, s.db, author, true)
	require.NoError(t, s.db.Create(&models.Comment{PostID: post.ID, UserID: author.ID, Body: "nice"}).Error)

	resp := doJSON(t, app, fiber.MethodDelete, "/api/v1/posts/1", nil, bearer(t, s, author.ID))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var count int64
	require.NoError(t, s.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeletePost_StrangerForbidden(t *testing.T) {
	app, s, _ := newTestServer(t)
	author := createUser(t, s.db, "author@example.com", "Zz12345#")
	stranger := createUser(t, s.db, "stranger@example.com", "Zz12345#")
	createPost(t, s.db, author, true)

	resp := doJSON(t, app, fiber.MethodDelete, "/api/v1/posts/1", nil, bearer(t, s, stranger.ID))
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
