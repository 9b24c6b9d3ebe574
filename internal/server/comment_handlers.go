package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) commentView(cm *models.Comment, withURL bool) fiber.Map {
	view := fiber.Map{
		"id":           cm.ID,
		"post":         cm.PostID,
		"author":       cm.UserID,
		"body":         cm.Body,
		"created_date": cm.CreatedAt,
	}
	if withURL {
		view["absolute_url"] = s.commentURL(cm.ID)
	}
	return view
}

// ListComments returns a post's comments, oldest first.
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListByPost(c.Context(), postID)
	if err != nil {
		return models.RespondError(c, err)
	}

	items := make([]fiber.Map, 0, len(comments))
	for i := range comments {
		items = append(items, s.commentView(&comments[i], true))
	}
	return c.Status(fiber.StatusOK).JSON(items)
}

// CreateComment attaches a comment to a post, authored by the caller.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Create(c.Context(), currentUserID(c), postID, req.Body)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.commentView(comment, false))
}

// DeleteComment removes a comment. Allowed for its author or a superuser.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.Delete(c.Context(), currentUserID(c), id); err != nil {
		return models.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
