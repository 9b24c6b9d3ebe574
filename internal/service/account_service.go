// Package service contains the business logic layer.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/mailer"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/token"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	authTokenKeyPrefix     = "authtok:"
	authTokenUserKeyPrefix = "authtok:user:"
	jwtBlacklistKeyPrefix  = "jwt:blacklist:"
)

// MailEnqueuer is the slice of the mail dispatcher the account service needs.
type MailEnqueuer interface {
	Enqueue(msg mailer.Message)
}

// AccountService implements registration, verification, authentication and
// credential management.
type AccountService struct {
	users repository.UserRepository
	codec *token.Codec
	mail  MailEnqueuer
}

// NewAccountService creates an AccountService.
func NewAccountService(users repository.UserRepository, codec *token.Codec, mail MailEnqueuer) *AccountService {
	return &AccountService{users: users, codec: codec, mail: mail}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
}

// Register creates an unverified account with its profile and kicks off the
// activation email. The returned user has IsVerified false until the emailed
// token is presented.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Password != in.PasswordConfirm {
		return nil, models.NewValidationError("Passwords doesnt match!")
	}

	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewFieldValidationError("Invalid input", map[string]string{"email": err.Error()})
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewFieldValidationError("Invalid input", map[string]string{"password": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := s.users.CreateWithProfile(ctx, user); err != nil {
		middleware.AccountTransitions.WithLabelValues("register", "failure").Inc()
		return nil, err
	}
	middleware.AccountTransitions.WithLabelValues("register", "success").Inc()

	s.sendActivation(user)
	return user, nil
}

func (s *AccountService) sendActivation(user *models.User) {
	tok, err := s.codec.Issue(user.ID, token.PurposeVerify)
	if err != nil {
		middleware.Logger.Error("failed to issue activation token", "error", err)
		return
	}
	s.mail.Enqueue(mailer.Message{
		Template: mailer.TemplateActivation,
		To:       user.Email,
		Token:    tok,
	})
}

// Activate marks the token's subject as verified. Re-presenting the token for
// an already verified account is not an error; the bool distinguishes the two
// success shapes.
func (s *AccountService) Activate(ctx context.Context, tokenString string) (alreadyVerified bool, err error) {
	userID, err := s.codec.Decode(tokenString, token.PurposeVerify)
	if err != nil {
		return false, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.IsVerified {
		return true, nil
	}

	if err := s.users.SetVerified(ctx, user.ID); err != nil {
		middleware.AccountTransitions.WithLabelValues("activate", "failure").Inc()
		return false, err
	}
	middleware.AccountTransitions.WithLabelValues("activate", "success").Inc()
	return false, nil
}

// ResendActivation emails a fresh activation token. Verified accounts get the
// email again rather than an error; the link is simply a no-op for them.
func (s *AccountService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("User does not exits!")
	}
	s.sendActivation(user)
	return nil
}

// TokenLoginResult is the opaque-token login response payload.
type TokenLoginResult struct {
	Token  string `json:"token"`
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// LoginToken authenticates with email and password and returns a stable
// opaque token stored in Redis. Unverified accounts cannot log in this way.
func (s *AccountService) LoginToken(ctx context.Context, email, password string) (*TokenLoginResult, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, models.NewValidationError("User is not verified!")
	}

	key, err := s.getOrCreateAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenLoginResult{Token: key, UserID: user.ID, Email: user.Email}, nil
}

func (s *AccountService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewValidationError("Unable to log in with provided credentials.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewValidationError("Unable to log in with provided credentials.")
	}
	return user, nil
}

// getOrCreateAuthToken returns the user's existing opaque token or mints a new
// one. Tokens live until logout; there is no expiry.
func (s *AccountService) getOrCreateAuthToken(ctx context.Context, userID uint) (string, error) {
	rdb := cache.GetClient()
	if rdb == nil {
		return "", models.NewInternalError(fmt.Errorf("token store unavailable"))
	}

	userKey := fmt.Sprintf("%s%d", authTokenUserKeyPrefix, userID)
	if existing, err := rdb.Get(ctx, userKey).Result(); err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", models.NewInternalError(err)
	}
	key := hex.EncodeToString(buf)

	pipe := rdb.TxPipeline()
	pipe.Set(ctx, authTokenKeyPrefix+key, userID, 0)
	pipe.Set(ctx, userKey, key, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// ResolveAuthToken maps an opaque token back to its user id. Returns 0 when
// the token is unknown.
func (s *AccountService) ResolveAuthToken(ctx context.Context, key string) uint {
	rdb := cache.GetClient()
	if rdb == nil {
		return 0
	}
	id, err := rdb.Get(ctx, authTokenKeyPrefix+key).Uint64()
	if err != nil {
		return 0
	}
	return uint(id)
}

// LogoutToken discards the caller's opaque token.
func (s *AccountService) LogoutToken(ctx context.Context, key string) error {
	rdb := cache.GetClient()
	if rdb == nil {
		return models.NewInternalError(fmt.Errorf("token store unavailable"))
	}
	id, err := rdb.Get(ctx, authTokenKeyPrefix+key).Uint64()
	if err != nil {
		return models.NewUnauthorizedError("Invalid token.")
	}
	pipe := rdb.TxPipeline()
	pipe.Del(ctx, authTokenKeyPrefix+key)
	pipe.Del(ctx, fmt.Sprintf("%s%d", authTokenUserKeyPrefix, uint(id)))
	if _, err := pipe.Exec(ctx); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// JWTPair is the JWT login response payload.
type JWTPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
	Email   string `json:"email,omitempty"`
	ID      uint   `json:"id,omitempty"`
}

// CreateJWTPair authenticates and issues an access/refresh pair. This flow
// deliberately does not require a verified email; only the opaque-token login
// enforces verification.
func (s *AccountService) CreateJWTPair(ctx context.Context, email, password string) (*JWTPair, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, models.NewUnauthorizedError("No active account found with the given credentials")
	}

	access, err := s.codec.Issue(user.ID, token.PurposeAccess)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := s.codec.Issue(user.ID, token.PurposeRefresh)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &JWTPair{Refresh: refresh, Access: access, Email: user.Email, ID: user.ID}, nil
}

// RefreshJWT exchanges a valid refresh token for a new access token.
func (s *AccountService) RefreshJWT(ctx context.Context, refreshToken string) (*JWTPair, error) {
	userID, err := s.codec.Decode(refreshToken, token.PurposeRefresh)
	if err != nil {
		return nil, err
	}
	if s.isBlacklisted(ctx, refreshToken) {
		return nil, models.NewTokenInvalidError()
	}

	access, err := s.codec.Issue(userID, token.PurposeAccess)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &JWTPair{Access: access}, nil
}

// LogoutJWT blacklists the refresh token's id until its natural expiry.
func (s *AccountService) LogoutJWT(ctx context.Context, refreshToken string) error {
	if _, err := s.codec.Decode(refreshToken, token.PurposeRefresh); err != nil {
		return err
	}
	jti, expiresAt := s.codec.JTI(refreshToken)
	if jti == "" {
		return models.NewTokenInvalidError()
	}

	rdb := cache.GetClient()
	if rdb == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := rdb.Set(ctx, jwtBlacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AccountService) isBlacklisted(ctx context.Context, tokenString string) bool {
	rdb := cache.GetClient()
	if rdb == nil {
		return false
	}
	jti, _ := s.codec.JTI(tokenString)
	if jti == "" {
		return false
	}
	n, err := rdb.Exists(ctx, jwtBlacklistKeyPrefix+jti).Result()
	return err == nil && n > 0
}

// IsJWTRevoked reports whether a token's id has been blacklisted by logout.
func (s *AccountService) IsJWTRevoked(ctx context.Context, tokenString string) bool {
	return s.isBlacklisted(ctx, tokenString)
}

// ChangePasswordInput carries the password change form fields.
type ChangePasswordInput struct {
	OldPassword        string
	NewPassword        string
	NewPasswordConfirm string
}

// ChangePassword rotates the caller's password after re-checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if in.NewPassword != in.NewPasswordConfirm {
		return models.NewValidationError("Passwords doesnt match!")
	}
	if in.NewPassword == in.OldPassword {
		return models.NewValidationError("New password must be different with old password!")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewFieldValidationError("Invalid input", map[string]string{"password": err.Error()})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)); err != nil {
		return models.NewValidationError("Wrong password!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		middleware.AccountTransitions.WithLabelValues("password_change", "failure").Inc()
		return err
	}
	middleware.AccountTransitions.WithLabelValues("password_change", "success").Inc()
	return nil
}

// RequestPasswordReset emails a reset token to the address if an account
// exists. A missing account is reported to the caller, matching the
// activation resend flow.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return models.NewValidationError("User does not exits!")
	}

	tok, err := s.codec.Issue(user.ID, token.PurposeReset)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.mail.Enqueue(mailer.Message{
		Template: mailer.TemplateResetPassword,
		To:       user.Email,
		Token:    tok,
	})
	return nil
}

// ResetPasswordInput carries the reset confirmation form fields.
type ResetPasswordInput struct {
	NewPassword        string
	NewPasswordConfirm string
}

// ConfirmPasswordReset sets a new password for the token's subject. The old
// password is not required; possession of the emailed token is the proof.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, tokenString string, in ResetPasswordInput) error {
	userID, err := s.codec.Decode(tokenString, token.PurposeReset)
	if err != nil {
		return err
	}

	if in.NewPassword != in.NewPasswordConfirm {
		return models.NewValidationError("Passwords doesnt match!")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewFieldValidationError("Invalid input", map[string]string{"password": err.Error()})
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		middleware.AccountTransitions.WithLabelValues("password_reset", "failure").Inc()
		return err
	}
	middleware.AccountTransitions.WithLabelValues("password_reset", "success").Inc()
	return nil
}

// ProfileView is the profile payload, carrying the account email alongside
// the mutable profile fields.
type ProfileView struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// GetProfile returns the caller's profile.
func (s *AccountService) GetProfile(ctx context.Context, userID uint) (*ProfileView, error) {
	profile, err := s.users.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileView(profile), nil
}

// UpdateProfileInput carries the editable profile fields. Nil pointers leave
// the stored value untouched, so partial updates work.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Image       *string
	Description *string
}

// UpdateProfile applies the given fields to the caller's profile.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*ProfileView, error) {
	profile, err := s.users.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		profile.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		profile.LastName = *in.LastName
	}
	if in.Image != nil {
		profile.Image = *in.Image
	}
	if in.Description != nil {
		profile.Description = *in.Description
	}

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profileView(profile), nil
}

func profileView(p *models.Profile) *ProfileView {
	return &ProfileView{
		ID:          p.ID,
		Email:       p.User.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Image:       p.Image,
		Description: p.Description,
	}
}
