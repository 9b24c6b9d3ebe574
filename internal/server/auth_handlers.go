package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Registration handles new account creation. The account starts unverified
// and an activation email is sent in the background.
func (s *Server) Registration(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password1 string `json:"password1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.Register(c.Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.Password1,
	})
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email": user.Email,
	})
}

// Activation consumes an emailed verification token. Visiting the link twice
// is harmless; the second visit just reports the account as verified.
func (s *Server) Activation(c *fiber.Ctx) error {
	tokenString := c.Params("token")

	already, err := s.accountService.Activate(c.Context(), tokenString)
	if err != nil {
		return models.RespondError(c, err)
	}
	if already {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"details": "Your account has already been verfied!",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"details": "Users email is verfied!",
	})
}

// ActivationResend emails a fresh activation token to the given address.
func (s *Server) ActivationResend(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.accountService.ResendActivation(c.Context(), req.Email); err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"details": "User activation resend successfuly!",
	})
}

// TokenLogin exchanges credentials for a stable opaque token. Only verified
// accounts may log in this way.
func (s *Server) TokenLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.accountService.LoginToken(c.Context(), req.Email, req.Password)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// TokenLogout discards the opaque token used to authenticate this request.
func (s *Server) TokenLogout(c *fiber.Ctx) error {
	key, _ := c.Locals("authTokenKey").(string)
	if key == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token authentication required for logout"))
	}

	if err := s.accountService.LogoutToken(c.Context(), key); err != nil {
		return models.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// JWTCreate exchanges credentials for an access/refresh pair. Verification is
// not required here; the pair works for unverified accounts too.
func (s *Server) JWTCreate(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	pair, err := s.accountService.CreateJWTPair(c.Context(), req.Email, req.Password)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(pair)
}

// JWTRefresh exchanges a refresh token for a new access token.
func (s *Server) JWTRefresh(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	pair, err := s.accountService.RefreshJWT(c.Context(), req.Refresh)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"access": pair.Access,
	})
}

// JWTLogout blacklists the presented refresh token until it expires.
func (s *Server) JWTLogout(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.accountService.LogoutJWT(c.Context(), req.Refresh); err != nil {
		return models.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePassword rotates the caller's password after checking the old one.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword  string `json:"old_password"`
		NewPassword  string `json:"new_password"`
		NewPassword1 string `json:"new_password1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err := s.accountService.ChangePassword(c.Context(), currentUserID(c), service.ChangePasswordInput{
		OldPassword:        req.OldPassword,
		NewPassword:        req.NewPassword,
		NewPasswordConfirm: req.NewPassword1,
	})
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail": "Password change successfuly!",
	})
}

// ResetPasswordEmail sends a password reset token to the given address.
func (s *Server) ResetPasswordEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.accountService.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"details": "Email sent successfuly!",
	})
}

// ResetPassword sets a new password using an emailed reset token.
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	tokenString := c.Params("token")

	var req struct {
		NewPassword  string `json:"new_password"`
		NewPassword1 string `json:"new_password1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err := s.accountService.ConfirmPasswordReset(c.Context(), tokenString, service.ResetPasswordInput{
		NewPassword:        req.NewPassword,
		NewPasswordConfirm: req.NewPassword1,
	})
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail": "Password change successfuly!",
	})
}

// GetProfile returns the caller's profile.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.accountService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// UpdateProfile applies profile changes for the caller. Omitted fields are
// left unchanged, so PATCH-style partial updates work.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Image       *string `json:"image"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.accountService.UpdateProfile(c.Context(), currentUserID(c), service.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Image:       req.Image,
		Description: req.Description,
	})
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(view)
}
