package service

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/mailer"
	"inkwell/internal/models"
	"inkwell/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// userRepoStub is a stub for repository.UserRepository backed by a map.
type userRepoStub struct {
	users  map[uint]*models.User
	nextID uint
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[uint]*models.User{}, nextID: 0}
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	copied := *u
	return &copied, nil
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *userRepoStub) CreateWithProfile(_ context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return models.NewConflictError("User with this email already exists")
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.Profile = &models.Profile{ID: s.nextID, UserID: s.nextID}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *userRepoStub) UpdatePassword(_ context.Context, id uint, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.Password = hash
	return nil
}

func (s *userRepoStub) SetVerified(_ context.Context, id uint) error {
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.IsVerified = true
	return nil
}

func (s *userRepoStub) GetProfileByUserID(_ context.Context, userID uint) (*models.Profile, error) {
	u, ok := s.users[userID]
	if !ok || u.Profile == nil {
		return nil, models.NewNotFoundError("Profile", userID)
	}
	profile := *u.Profile
	profile.User = *u
	return &profile, nil
}

func (s *userRepoStub) UpdateProfile(_ context.Context, profile *models.Profile) error {
	u, ok := s.users[profile.UserID]
	if !ok {
		return models.NewNotFoundError("Profile", profile.UserID)
	}
	stored := *profile
	u.Profile = &stored
	return nil
}

// mailStub records enqueued messages instead of delivering them.
type mailStub struct {
	messages []mailer.Message
}

func (m *mailStub) Enqueue(msg mailer.Message) {
	m.messages = append(m.messages, msg)
}

func testCodec() *token.Codec {
	return token.NewCodec("test-secret", token.TTLs{
		Access:  15 * time.Minute,
		Refresh: 24 * time.Hour,
		Verify:  10 * time.Minute,
		Reset:   10 * time.Minute,
	})
}

func newAccountFixture(t *testing.T) (*AccountService, *userRepoStub, *mailStub) {
	t.Helper()
	repo := newUserRepoStub()
	mail := &mailStub{}
	svc := NewAccountService(repo, testCodec(), mail)
	return svc, repo, mail
}

// withMiniredis points the cache package at an in-memory Redis for the test.
func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() {
		cache.SetClient(nil)
		client.Close()
	})
	return mr
}

func register(t *testing.T, svc *AccountService, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)
	return user
}

func TestRegister_CreatesUnverifiedUserWithProfile(t *testing.T) {
	svc, repo, mail := newAccountFixture(t)

	user := register(t, svc, "new@example.com", "Zz12345#")

	assert.False(t, user.IsVerified)
	assert.NotNil(t, user.Profile)
	assert.Equal(t, user.ID, user.Profile.UserID)

	// Password is stored hashed, never plaintext
	stored := repo.users[user.ID]
	assert.NotEqual(t, "Zz12345#", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Zz12345#")))

	// Activation email goes out in the background
	require.Len(t, mail.messages, 1)
	assert.Equal(t, mailer.TemplateActivation, mail.messages[0].Template)
	assert.Equal(t, "new@example.com", mail.messages[0].To)
	assert.NotEmpty(t, mail.messages[0].Token)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc, _, mail := newAccountFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "new@example.com",
		Password:        "Zz12345#",
		PasswordConfirm: "Zz12345!",
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Passwords doesnt match!", appErr.Message)
	assert.Empty(t, mail.messages)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "new@example.com",
		Password:        "weak",
		PasswordConfirm: "weak",
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "password")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	register(t, svc, "dup@example.com", "Zz12345#")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:           "dup@example.com",
		Password:        "Zz12345#",
		PasswordConfirm: "Zz12345#",
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestActivate_VerifiesAndIsIdempotent(t *testing.T) {
	svc, repo, mail := newAccountFixture(t)

	user := register(t, svc, "new@example.com", "Zz12345#")
	activationToken := mail.messages[0].Token

	already, err := svc.Activate(context.Background(), activationToken)
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, repo.users[user.ID].IsVerified)

	// Second visit with the same link reports already-verified
	already, err = svc.Activate(context.Background(), activationToken)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestActivate_RejectsWrongPurposeToken(t *testing.T) {
	svc, repo, _ := newAccountFixture(t)

	user := register(t, svc, "new@example.com", "Zz12345#")

	// An access token must not work as an activation link
	codec := testCodec()
	accessToken, err := codec.Issue(user.ID, token.PurposeAccess)
	require.NoError(t, err)

	_, err = svc.Activate(context.Background(), accessToken)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeTokenInvalid, appErr.Code)
	assert.False(t, repo.users[user.ID].IsVerified)
}

func TestResendActivation(t *testing.T) {
	svc, _, mail := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")
	require.Len(t, mail.messages, 1)

	require.NoError(t, svc.ResendActivation(context.Background(), "new@example.com"))
	assert.Len(t, mail.messages, 2)

	err := svc.ResendActivation(context.Background(), "ghost@example.com")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User does not exits!", appErr.Message)
}

func TestLoginToken_RequiresVerifiedAccount(t *testing.T) {
	withMiniredis(t)
	svc, _, mail := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")

	_, err := svc.LoginToken(context.Background(), "new@example.com", "Zz12345#")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User is not verified!", appErr.Message)

	// After activation the same credentials work
	_, err = svc.Activate(context.Background(), mail.messages[0].Token)
	require.NoError(t, err)

	result, err := svc.LoginToken(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "new@example.com", result.Email)

	// The token is stable across logins, matching get-or-create semantics
	again, err := svc.LoginToken(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)
	assert.Equal(t, result.Token, again.Token)

	// And resolvable back to the user
	assert.Equal(t, result.UserID, svc.ResolveAuthToken(context.Background(), result.Token))
}

func TestLoginToken_BadCredentials(t *testing.T) {
	withMiniredis(t)
	svc, _, _ := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")

	_, err := svc.LoginToken(context.Background(), "new@example.com", "wrong-password")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Unable to log in with provided credentials.", appErr.Message)
}

func TestLogoutToken_DiscardsToken(t *testing.T) {
	withMiniredis(t)
	svc, _, mail := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")
	_, err := svc.Activate(context.Background(), mail.messages[0].Token)
	require.NoError(t, err)

	result, err := svc.LoginToken(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutToken(context.Background(), result.Token))
	assert.Zero(t, svc.ResolveAuthToken(context.Background(), result.Token))

	// A fresh login mints a new token
	again, err := svc.LoginToken(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)
	assert.NotEqual(t, result.Token, again.Token)
}

func TestCreateJWTPair_DoesNotRequireVerification(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	user := register(t, svc, "new@example.com", "Zz12345#")

	pair, err := svc.CreateJWTPair(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.Equal(t, "new@example.com", pair.Email)
	assert.Equal(t, user.ID, pair.ID)
}

func TestCreateJWTPair_BadCredentials(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")

	_, err := svc.CreateJWTPair(context.Background(), "new@example.com", "nope")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
	assert.Equal(t, "No active account found with the given credentials", appErr.Message)
}

func TestRefreshJWT(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")
	pair, err := svc.CreateJWTPair(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)

	refreshed, err := svc.RefreshJWT(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)

	// An access token is not a refresh token
	_, err = svc.RefreshJWT(context.Background(), pair.Access)
	require.Error(t, err)
}

func TestLogoutJWT_BlacklistsRefreshToken(t *testing.T) {
	withMiniredis(t)
	svc, _, _ := newAccountFixture(t)

	register(t, svc, "new@example.com", "Zz12345#")
	pair, err := svc.CreateJWTPair(context.Background(), "new@example.com", "Zz12345#")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutJWT(context.Background(), pair.Refresh))

	_, err = svc.RefreshJWT(context.Background(), pair.Refresh)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeTokenInvalid, appErr.Code)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newAccountFixture(t)

	user := register(t, svc, "new@example.com", "Zz12345#")
	ctx := context.Background()

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
			OldPassword:        "Zz12345#",
			NewPassword:        "Xx67890!",
			NewPasswordConfirm: "Xx67890?",
		})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Passwords doesnt match!", appErr.Message)
	})

	t.Run("same as old", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
			OldPassword:        "Zz12345#",
			NewPassword:        "Zz12345#",
			NewPasswordConfirm: "Zz12345#",
		})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "New password must be different with old password!", appErr.Message)
	})

	t.Run("wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
			OldPassword:        "not-the-password",
			NewPassword:        "Xx67890!",
			NewPasswordConfirm: "Xx67890!",
		})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Wrong password!", appErr.Message)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("success", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
			OldPassword:        "Zz12345#",
			NewPassword:        "Xx67890!",
			NewPasswordConfirm: "Xx67890!",
		})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(repo.users[user.ID].Password), []byte("Xx67890!")))
	})
}

func TestPasswordReset(t *testing.T) {
	svc, repo, mail := newAccountFixture(t)
	ctx := context.Background()

	user := register(t, svc, "new@example.com", "Zz12345#")

	err := svc.RequestPasswordReset(ctx, "ghost@example.com")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User does not exits!", appErr.Message)

	require.NoError(t, svc.RequestPasswordReset(ctx, "new@example.com"))
	require.Len(t, mail.messages, 2) // activation + reset
	resetMsg := mail.messages[1]
	assert.Equal(t, mailer.TemplateResetPassword, resetMsg.Template)

	// Mismatched confirmation is rejected before any mutation
	err = svc.ConfirmPasswordReset(ctx, resetMsg.Token, ResetPasswordInput{
		NewPassword:        "Xx67890!",
		NewPasswordConfirm: "different",
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Passwords doesnt match!", appErr.Message)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, resetMsg.Token, ResetPasswordInput{
		NewPassword:        "Xx67890!",
		NewPasswordConfirm: "Xx67890!",
	}))
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(repo.users[user.ID].Password), []byte("Xx67890!")))

	// An activation token is not accepted as a reset token
	err = svc.ConfirmPasswordReset(ctx, mail.messages[0].Token, ResetPasswordInput{
		NewPassword:        "Qq13579$",
		NewPasswordConfirm: "Qq13579$",
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeTokenInvalid, appErr.Code)
}

func TestProfile(t *testing.T) {
	svc, _, _ := newAccountFixture(t)
	ctx := context.Background()

	user := register(t, svc, "new@example.com", "Zz12345#")

	view, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", view.Email)
	assert.Empty(t, view.FirstName)

	first := "Ada"
	desc := "writes about compilers"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		FirstName:   &first,
		Description: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "writes about compilers", updated.Description)

	// Partial update leaves other fields alone
	last := "Lovelace"
	updated, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
}
