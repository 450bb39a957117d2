package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta/recipe-box/internal/database/models"
	"gorm.io/gorm"
)

type mailSpy struct {
	confirmations []string
	resets        []string
	lastToken     string
}

func (m *mailSpy) EnqueueConfirmationEmail(ctx context.Context, email, token string) error {
	m.confirmations = append(m.confirmations, email)
	m.lastToken = token
	return nil
}

func (m *mailSpy) EnqueuePasswordResetEmail(ctx context.Context, email, token string) error {
	m.resets = append(m.resets, email)
	m.lastToken = token
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *mailSpy) {
	t.Helper()

	db := setupDB(t)
	tokens := NewTokenStore(db, time.Hour, 5*time.Second)
	links := NewLinkTokenService("test-secret", time.Hour)
	mail := &mailSpy{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, tokens, links, mail, 4*time.Hour, logger), db, mail
}

func TestService_SignUp(t *testing.T) {
	svc, db, mail := newTestService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpInput{Email: "New.User@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", user.Email)
	assert.False(t, user.Confirmed())
	assert.Equal(t, models.RoleNormal, user.Role)
	assert.Equal(t, []string{"new.user@example.com"}, mail.confirmations)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotEqual(t, "password1", stored.PasswordDigest)
	assert.NotNil(t, stored.ConfirmationSentAt)
}

func TestService_SignUp_DuplicateEmail(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "taken@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, SignUpInput{Email: "Taken@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, mail.confirmations, 1)
}

func TestService_ConfirmFlow(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpInput{Email: "confirm@example.com", Password: "password1"})
	require.NoError(t, err)

	// Sign-in before confirmation is rejected
	_, _, err = svc.SignIn(ctx, "confirm@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	confirmed, err := svc.Confirm(ctx, mail.lastToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, confirmed.ID)
	assert.True(t, confirmed.Confirmed())

	// Confirming twice is a no-op, not an error
	again, err := svc.Confirm(ctx, mail.lastToken)
	require.NoError(t, err)
	assert.True(t, again.Confirmed())

	_, _, err = svc.SignIn(ctx, "confirm@example.com", "password1")
	assert.NoError(t, err)
}

func TestService_Confirm_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Confirm(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ResendConfirmation(t *testing.T) {
	svc, _, mail := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "pending@example.com", Password: "password1"})
	require.NoError(t, err)
	require.Len(t, mail.confirmations, 1)

	svc.ResendConfirmation(ctx, "pending@example.com")
	assert.Len(t, mail.confirmations, 2)

	// Unknown address sends nothing and reveals nothing
	svc.ResendConfirmation(ctx, "nobody@example.com")
	assert.Len(t, mail.confirmations, 2)

	// Already-confirmed accounts are left alone
	_, err = svc.Confirm(ctx, mail.lastToken)
	require.NoError(t, err)
	svc.ResendConfirmation(ctx, "pending@example.com")
	assert.Len(t, mail.confirmations, 2)
}

func TestService_SignIn(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "signin@example.com")

	got, sess, err := svc.SignIn(ctx, "SignIn@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "signin@example.com", sess.UID)
	assert.NotEmpty(t, sess.Token)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestService_SignIn_Failures(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "locked@example.com")

	_, _, err := svc.SignIn(ctx, "locked@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "unknown@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, db.Model(user).Update("is_deleted", true).Error)
	_, _, err = svc.SignIn(ctx, "locked@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_SignOut(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, db, "bye@example.com")

	user, sess, err := svc.SignIn(ctx, "bye@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, user, sess.ClientID))

	_, _, err = svc.tokens.Validate(ctx, sess.UID, sess.ClientID, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_PasswordResetFlow(t *testing.T) {
	svc, db, mail := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "reset@example.com")

	svc.RequestPasswordReset(ctx, "reset@example.com")
	require.Len(t, mail.resets, 1)
	rawToken := mail.lastToken

	// The change is locked until the token is presented
	_, err := svc.UpdatePassword(ctx, rawToken, "newpassword1")
	assert.ErrorIs(t, err, ErrResetNotAllowed)

	unlocked, err := svc.ValidateResetToken(ctx, rawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, unlocked.ID)
	assert.True(t, unlocked.AllowPasswordChange)

	_, err = svc.UpdatePassword(ctx, rawToken, "newpassword1")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "reset@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.SignIn(ctx, "reset@example.com", "newpassword1")
	assert.NoError(t, err)

	// The reset state is cleared, the token is single-use
	_, err = svc.ValidateResetToken(ctx, rawToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_PasswordReset_ExpiredWindow(t *testing.T) {
	svc, db, mail := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "slow@example.com")

	svc.RequestPasswordReset(ctx, "slow@example.com")
	require.Len(t, mail.resets, 1)

	stale := time.Now().Add(-5 * time.Hour)
	require.NoError(t, db.Model(user).Update("reset_password_sent_at", stale).Error)

	_, err := svc.ValidateResetToken(ctx, mail.lastToken)
	assert.ErrorIs(t, err, ErrUserNotFound)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.False(t, stored.AllowPasswordChange)
}

func TestService_PasswordReset_UnknownEmail(t *testing.T) {
	svc, _, mail := newTestService(t)

	svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.Empty(t, mail.resets)
}

func TestService_Withdraw(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	createUser(t, db, "leaver@example.com")

	user, sess, err := svc.SignIn(ctx, "leaver@example.com", "password1")
	require.NoError(t, err)

	recipe := models.Recipe{UserID: user.ID, Name: "curry"}
	require.NoError(t, db.Create(&recipe).Error)

	require.NoError(t, svc.Withdraw(ctx, user.ID))

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.True(t, stored.IsDeleted)
	assert.Nil(t, stored.ConfirmedAt)
	assert.Empty(t, stored.Tokens)
	assert.True(t, strings.HasPrefix(stored.Email, "leaver_deleted_"))
	assert.True(t, strings.HasSuffix(stored.Email, "@example.com"))

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Sessions for the withdrawn account no longer resolve
	_, _, err = svc.tokens.Validate(ctx, sess.UID, sess.ClientID, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// The original address is free to register again
	_, err = svc.SignUp(ctx, SignUpInput{Email: "leaver@example.com", Password: "password1"})
	assert.NoError(t, err)

	// A second withdrawal of the same account fails
	err = svc.Withdraw(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Withdraw_RollsBackOnFailure(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, db, "sticky@example.com")

	recipe := models.Recipe{UserID: user.ID, Name: "stew"}
	require.NoError(t, db.Create(&recipe).Error)

	svc.SetRecipeDeleter(func(tx *gorm.DB, userID uuid.UUID) error {
		return errors.New("boom")
	})

	err := svc.Withdraw(ctx, user.ID)
	require.Error(t, err)

	// Nothing changed
	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.False(t, stored.IsDeleted)
	assert.Equal(t, "sticky@example.com", stored.Email)

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestService_GuestLifecycle(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	guest, sess, err := svc.CreateGuest(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, guest.Role)
	assert.True(t, guest.Confirmed())
	assert.True(t, strings.HasPrefix(guest.Email, "guest_"))
	assert.NotEmpty(t, sess.Token)

	// The guest session authenticates immediately, no confirmation step
	got, _, err := svc.tokens.Validate(ctx, sess.UID, sess.ClientID, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, got.ID)

	recipe := models.Recipe{UserID: guest.ID, Name: "guest dish"}
	require.NoError(t, db.Create(&recipe).Error)

	require.NoError(t, svc.DestroyGuest(ctx, guest))

	// Physically gone, not soft-deleted
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", guest.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Recipe{}).Where("user_id = ?", guest.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteUserRecipes_CascadesChildren(t *testing.T) {
	_, db, _ := newTestService(t)
	user := createUser(t, db, "owner@example.com")

	recipe := models.Recipe{UserID: user.ID, Name: "ramen"}
	require.NoError(t, db.Create(&recipe).Error)
	require.NoError(t, db.Create(&models.Ingredient{
		RecipeID: recipe.ID, Name: "noodles", Quantity: 1, Unit: "pack",
		Category: models.CategoryIngredient,
	}).Error)
	require.NoError(t, db.Create(&models.Video{
		RecipeID: recipe.ID, VideoID: "abc123", Status: models.VideoStatusPublic,
	}).Error)

	require.NoError(t, DeleteUserRecipes(db, user.ID))

	var count int64
	db.Model(&models.Recipe{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Ingredient{}).Where("recipe_id = ?", recipe.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Video{}).Where("recipe_id = ?", recipe.ID).Count(&count)
	assert.Zero(t, count)
}
