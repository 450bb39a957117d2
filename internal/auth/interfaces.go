package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/database/models"
)

// Lifecycle defines the account state transitions exposed to the handlers.
type Lifecycle interface {
	SignUp(ctx context.Context, input SignUpInput) (*models.User, error)
	Confirm(ctx context.Context, token string) (*models.User, error)
	ResendConfirmation(ctx context.Context, email string)
	SignIn(ctx context.Context, email, password string) (*models.User, Session, error)
	SignOut(ctx context.Context, user *models.User, clientID string) error
	RequestPasswordReset(ctx context.Context, email string)
	ValidateResetToken(ctx context.Context, raw string) (*models.User, error)
	UpdatePassword(ctx context.Context, rawToken, password string) (*models.User, error)
	Withdraw(ctx context.Context, userID uuid.UUID) error
	CreateGuest(ctx context.Context) (*models.User, Session, error)
	DestroyGuest(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionValidator is what the authentication middleware needs from the
// token store.
type SessionValidator interface {
	Validate(ctx context.Context, uid, clientID, raw string) (*models.User, *Session, error)
}

// Compile-time interface satisfaction checks
var (
	_ Lifecycle        = (*Service)(nil)
	_ SessionValidator = (*TokenStore)(nil)
)
