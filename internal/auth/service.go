package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
	// ErrInvalidCredentials covers bad password, unknown email, unconfirmed
	// and withdrawn accounts alike. Sign-in never reveals which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetNotAllowed    = errors.New("password change not allowed")
)

// MailEnqueuer hands outbound mail to the background worker. The lifecycle
// service never blocks on SMTP.
type MailEnqueuer interface {
	EnqueueConfirmationEmail(ctx context.Context, email, token string) error
	EnqueuePasswordResetEmail(ctx context.Context, email, token string) error
}

type SignUpInput struct {
	Email    string
	Password string
}

// Service owns the account lifecycle: sign-up, confirmation, sign-in/out,
// password reset, withdrawal and the guest flow.
type Service struct {
	db          *gorm.DB
	tokens      *TokenStore
	links       *LinkTokenService
	mail        MailEnqueuer
	resetWindow time.Duration
	logger      *slog.Logger

	// deleteRecipes is the cascading cleanup step of withdrawal, swappable
	// so tests can force the transaction to fail mid-way.
	deleteRecipes func(tx *gorm.DB, userID uuid.UUID) error
}

func NewService(db *gorm.DB, tokens *TokenStore, links *LinkTokenService, mail MailEnqueuer, resetWindow time.Duration, logger *slog.Logger) *Service {
	return &Service{
		db:            db,
		tokens:        tokens,
		links:         links,
		mail:          mail,
		resetWindow:   resetWindow,
		logger:        logger,
		deleteRecipes: DeleteUserRecipes,
	}
}

// SetRecipeDeleter overrides the withdrawal cleanup step. Test hook.
func (s *Service) SetRecipeDeleter(fn func(tx *gorm.DB, userID uuid.UUID) error) {
	s.deleteRecipes = fn
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	return hex.EncodeToString(buf)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an unconfirmed account and enqueues exactly one
// confirmation email.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*models.User, error) {
	email := NormalizeEmail(input.Email)

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		Email:              email,
		PasswordDigest:     hash,
		Role:               models.RoleNormal,
		ConfirmationSentAt: &now,
		Tokens:             models.TokenMap{},
	}
	// The unique index on email is the arbiter; a pre-check would race
	// against a concurrent registration of the same address.
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.links.GenerateConfirmationToken(email)
	if err != nil {
		return nil, err
	}
	if err := s.mail.EnqueueConfirmationEmail(ctx, email, token); err != nil {
		return nil, fmt.Errorf("enqueue confirmation email: %w", err)
	}

	return &user, nil
}

// Confirm flips an account to confirmed from a link token. Confirming an
// already-confirmed account is a no-op; it never resets state.
func (s *Service) Confirm(ctx context.Context, tokenString string) (*models.User, error) {
	email, err := s.links.ValidateConfirmationToken(tokenString)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if user.Confirmed() {
		return &user, nil
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("confirmed_at", now).Error; err != nil {
		return nil, err
	}
	user.ConfirmedAt = &now
	return &user, nil
}

// ResendConfirmation always reports success. Mail is only actually sent when
// the account exists, is not withdrawn, and still awaits confirmation.
func (s *Service) ResendConfirmation(ctx context.Context, email string) {
	email = NormalizeEmail(email)

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return
	}
	if user.IsDeleted || user.Confirmed() {
		return
	}

	token, err := s.links.GenerateConfirmationToken(email)
	if err != nil {
		s.logger.Error("generating confirmation token", "error", err)
		return
	}
	if err := s.mail.EnqueueConfirmationEmail(ctx, email, token); err != nil {
		s.logger.Error("enqueuing confirmation email", "error", err)
		return
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("confirmation_sent_at", now).Error; err != nil {
		s.logger.Error("recording confirmation resend", "error", err)
	}
}

// SignIn authenticates by email and password and issues a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, Session, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error; err != nil {
		return nil, Session{}, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() || !CheckPassword(password, user.PasswordDigest) {
		return nil, Session{}, ErrInvalidCredentials
	}

	sess, err := s.tokens.Issue(ctx, &user)
	if err != nil {
		return nil, Session{}, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.logger.Warn("recording last login", "error", err)
	}

	return &user, sess, nil
}

// SignOut revokes the presenting client's session.
func (s *Service) SignOut(ctx context.Context, user *models.User, clientID string) error {
	return s.tokens.Revoke(ctx, user.ID, clientID)
}

// RequestPasswordReset stores a reset token digest and enqueues the reset
// email. It reports nothing about whether the address exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	email = NormalizeEmail(email)

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		First(&user).Error; err != nil {
		return
	}

	raw, digest, err := generateToken()
	if err != nil {
		s.logger.Error("generating reset token", "error", err)
		return
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"reset_password_digest":  digest,
		"reset_password_sent_at": now,
		"allow_password_change":  false,
	}).Error
	if err != nil {
		s.logger.Error("storing reset token", "error", err)
		return
	}

	if err := s.mail.EnqueuePasswordResetEmail(ctx, email, raw); err != nil {
		s.logger.Error("enqueuing password reset email", "error", err)
	}
}

// ValidateResetToken checks a presented reset token against the store and,
// inside the expiry window, unlocks the password change. Missing, wrong and
// expired tokens are indistinguishable to the caller.
func (s *Service) ValidateResetToken(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("reset_password_digest = ? AND is_deleted = ?", Digest(raw), false).
		First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if user.ResetPasswordSentAt == nil || time.Since(*user.ResetPasswordSentAt) > s.resetWindow {
		return nil, ErrUserNotFound
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("allow_password_change", true).Error; err != nil {
		return nil, err
	}
	user.AllowPasswordChange = true
	return &user, nil
}

// UpdatePassword finishes the reset flow: it requires the unlock set by
// ValidateResetToken, stores the new digest and clears the reset state.
func (s *Service) UpdatePassword(ctx context.Context, rawToken, password string) (*models.User, error) {
	if rawToken == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("reset_password_digest = ? AND is_deleted = ?", Digest(rawToken), false).
		First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if !user.AllowPasswordChange {
		return nil, ErrResetNotAllowed
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password_digest":        hash,
		"reset_password_digest":  "",
		"reset_password_sent_at": nil,
		"allow_password_change":  false,
	}).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Withdraw soft-deletes the account in a single transaction: cascade-delete
// every owned recipe, rename the email so the original address can register
// again, clear all sessions, and unset confirmation. Any failure rolls the
// whole operation back.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).First(&user, "id = ?", userID).Error; err != nil {
			return ErrUserNotFound
		}
		if user.IsDeleted {
			return ErrUserNotFound
		}

		if err := s.deleteRecipes(tx, user.ID); err != nil {
			return fmt.Errorf("deleting recipes: %w", err)
		}

		local, domain, _ := strings.Cut(user.Email, "@")
		retired := fmt.Sprintf("%s_deleted_%s@%s", local, randomHex(6), domain)

		return tx.Model(&user).Updates(map[string]interface{}{
			"email":        retired,
			"is_deleted":   true,
			"confirmed_at": nil,
			"tokens":       models.TokenMap{},
		}).Error
	})
}

// CreateGuest provisions a throwaway pre-confirmed account. The password is
// random and never leaves the server.
func (s *Service) CreateGuest(ctx context.Context) (*models.User, Session, error) {
	hash, err := HashPassword(randomHex(16))
	if err != nil {
		return nil, Session{}, err
	}

	now := time.Now()
	user := models.User{
		Email:          fmt.Sprintf("guest_%s@example.com", randomHex(6)),
		PasswordDigest: hash,
		Role:           models.RoleGuest,
		ConfirmedAt:    &now,
		Tokens:         models.TokenMap{},
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, Session{}, err
	}

	sess, err := s.tokens.Issue(ctx, &user)
	if err != nil {
		return nil, Session{}, err
	}
	return &user, sess, nil
}

// DestroyGuest physically removes a guest account and everything it owns.
// Unlike withdrawal there is no row left behind.
func (s *Service) DestroyGuest(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.deleteRecipes(tx, user.ID); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUserRecipes removes a user's recipes together with their ingredients
// and videos. The persistence-level cascade is mirrored here so sqlite test
// databases behave like production postgres.
func DeleteUserRecipes(tx *gorm.DB, userID uuid.UUID) error {
	var recipeIDs []uuid.UUID
	if err := tx.Model(&models.Recipe{}).
		Where("user_id = ?", userID).
		Pluck("id", &recipeIDs).Error; err != nil {
		return err
	}
	if len(recipeIDs) == 0 {
		return nil
	}

	if err := tx.Where("recipe_id IN ?", recipeIDs).Delete(&models.Ingredient{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id IN ?", recipeIDs).Delete(&models.Video{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", recipeIDs).Delete(&models.Recipe{}).Error
}
