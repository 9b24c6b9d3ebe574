package server

import (
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postListItem is the listing projection: no content, but an absolute link
// for client-side navigation.
func (s *Server) postListItem(p *models.Post) fiber.Map {
	return fiber.Map{
		"id":             p.ID,
		"title":          p.Title,
		"image":          p.Image,
		"status":         p.Published,
		"category":       categoryView(p.Category),
		"author":         authorView(&p.Author),
		"absolute_url":   s.postURL(p.ID),
		"published_date": p.PublishedAt,
	}
}

// postDetail is the detail projection: full content, no absolute_url since
// the client already is at that URL.
func (s *Server) postDetail(p *models.Post) fiber.Map {
	return fiber.Map{
		"id":             p.ID,
		"title":          p.Title,
		"image":          p.Image,
		"content":        p.Content,
		"status":         p.Published,
		"category":       categoryView(p.Category),
		"author":         authorView(&p.Author),
		"published_date": p.PublishedAt,
	}
}

func categoryView(c *models.Category) any {
	if c == nil {
		return nil
	}
	return fiber.Map{"id": c.ID, "name": c.Name}
}

func authorView(p *models.Profile) fiber.Map {
	return fiber.Map{
		"id":         p.ID,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
	}
}

// ListPosts returns published posts, optionally filtered by exact category
// name via ?category=.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	pagination := parsePagination(c, 20)
	categoryName := c.Query("category")

	posts, err := s.postService.List(c.Context(), categoryName, pagination.Limit, pagination.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}

	items := make([]fiber.Map, 0, len(posts))
	for i := range posts {
		items = append(items, s.postListItem(&posts[i]))
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

// GetPost returns a single post with its content.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.Context(), id)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(s.postDetail(post))
}

// CreatePost stores a new post authored by the caller.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title         string     `json:"title"`
		Content       string     `json:"content"`
		Image         string     `json:"image"`
		Category      *uint      `json:"category"`
		Status        bool       `json:"status"`
		PublishedDate *time.Time `json:"published_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Image:      req.Image,
		CategoryID: req.Category,
		Published:  req.Status,
	}
	if req.PublishedDate != nil {
		in.PublishedAt = *req.PublishedDate
	}

	post, err := s.postService.Create(c.Context(), currentUserID(c), in)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.postDetail(post))
}

// UpdatePost applies changes to a post. Only its author may do this.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title         *string    `json:"title"`
		Content       *string    `json:"content"`
		Image         *string    `json:"image"`
		Category      *uint      `json:"category"`
		ClearCategory bool       `json:"clear_category"`
		Status        *bool      `json:"status"`
		PublishedDate *time.Time `json:"published_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Update(c.Context(), currentUserID(c), id, service.UpdatePostInput{
		Title:         req.Title,
		Content:       req.Content,
		Image:         req.Image,
		CategoryID:    req.Category,
		ClearCategory: req.ClearCategory,
		Published:     req.Status,
		PublishedAt:   req.PublishedDate,
	})
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(s.postDetail(post))
}

// DeletePost removes a post and its comments. Only its author may do this.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.Context(), currentUserID(c), id); err != nil {
		return models.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
