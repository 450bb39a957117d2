package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnauthenticated covers every token validation failure: unknown uid,
// unknown client, digest mismatch, expired entry. Callers never learn which.
var ErrUnauthenticated = errors.New("unauthenticated")

const TokenTypeBearer = "Bearer"

// Session is the credential triple handed to a client. The raw token is
// only ever available here; the store keeps digests.
type Session struct {
	UID       string
	ClientID  string
	Token     string
	ExpiresAt time.Time
}

// TokenStore issues and validates the per-client rolling session tokens kept
// in users.tokens. Every successful validation rotates the presented token;
// a stale token is accepted without rotation for a short grace window so
// overlapping requests from the same client don't lock each other out.
type TokenStore struct {
	db     *gorm.DB
	expiry time.Duration
	grace  time.Duration
}

func NewTokenStore(db *gorm.DB, expiry, grace time.Duration) *TokenStore {
	return &TokenStore{db: db, expiry: expiry, grace: grace}
}

func generateToken() (raw, digest string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, Digest(raw), nil
}

// Digest returns the stored form of a raw token.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func digestsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// forUpdate adds a row lock where the dialect supports it. The sqlite test
// database serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Issue creates a fresh client-scoped session for the user and persists its
// digest. Expired entries for other clients are pruned on the way.
func (s *TokenStore) Issue(ctx context.Context, user *models.User) (Session, error) {
	raw, digest, err := generateToken()
	if err != nil {
		return Session{}, err
	}

	now := time.Now()
	clientID := uuid.NewString()
	expiresAt := now.Add(s.expiry)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.User
		if err := forUpdate(tx).First(&locked, "id = ?", user.ID).Error; err != nil {
			return err
		}

		tokens := locked.Tokens
		if tokens == nil {
			tokens = models.TokenMap{}
		}
		for id, entry := range tokens {
			if entry.ExpiresAt < now.Unix() {
				delete(tokens, id)
			}
		}
		tokens[clientID] = models.SessionToken{
			Digest:     digest,
			ExpiresAt:  expiresAt.Unix(),
			LastUsedAt: now.Unix(),
		}

		if err := tx.Model(&locked).Update("tokens", tokens).Error; err != nil {
			return err
		}
		user.Tokens = tokens
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		UID:       user.Email,
		ClientID:  clientID,
		Token:     raw,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate authenticates the uid/client/token triple. On success it returns
// the user and, unless the grace path was taken, the rotated session the
// caller must hand back to the client. The rotation is committed in the same
// transaction as the lookup, so two concurrent validations of one token
// cannot both succeed.
func (s *TokenStore) Validate(ctx context.Context, uid, clientID, raw string) (*models.User, *Session, error) {
	if uid == "" || clientID == "" || raw == "" {
		return nil, nil, ErrUnauthenticated
	}

	digest := Digest(raw)
	var user models.User
	var rotated *Session

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("email = ?", strings.ToLower(uid)).
			First(&user).Error; err != nil {
			return ErrUnauthenticated
		}
		if !user.CanAuthenticate() {
			return ErrUnauthenticated
		}

		entry, ok := user.Tokens[clientID]
		if !ok {
			return ErrUnauthenticated
		}

		now := time.Now()
		if entry.ExpiresAt < now.Unix() {
			return ErrUnauthenticated
		}

		if digestsEqual(digest, entry.Digest) {
			newRaw, newDigest, err := generateToken()
			if err != nil {
				return err
			}
			expiresAt := now.Add(s.expiry)
			user.Tokens[clientID] = models.SessionToken{
				Digest:         newDigest,
				PreviousDigest: entry.Digest,
				ExpiresAt:      expiresAt.Unix(),
				RotatedAt:      now.Unix(),
				LastUsedAt:     now.Unix(),
			}
			rotated = &Session{
				UID:       user.Email,
				ClientID:  clientID,
				Token:     newRaw,
				ExpiresAt: expiresAt,
			}
			return tx.Model(&user).Update("tokens", user.Tokens).Error
		}

		// A just-rotated token stays usable briefly, but never earns
		// another rotation, so no fresh credentials are returned.
		if entry.PreviousDigest != "" &&
			digestsEqual(digest, entry.PreviousDigest) &&
			now.Unix()-entry.RotatedAt <= int64(s.grace.Seconds()) {
			return nil
		}

		return ErrUnauthenticated
	})
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}

	return &user, rotated, nil
}

// Peek authenticates the triple without rotating it. Handlers that only need
// to know who is calling, and will not hand fresh credentials back, use this
// so a rejected request doesn't invalidate the client's current token.
func (s *TokenStore) Peek(ctx context.Context, uid, clientID, raw string) (*models.User, error) {
	if uid == "" || clientID == "" || raw == "" {
		return nil, ErrUnauthenticated
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(uid)).
		First(&user).Error; err != nil {
		return nil, ErrUnauthenticated
	}
	if !user.CanAuthenticate() {
		return nil, ErrUnauthenticated
	}

	entry, ok := user.Tokens[clientID]
	if !ok {
		return nil, ErrUnauthenticated
	}

	now := time.Now()
	if entry.ExpiresAt < now.Unix() {
		return nil, ErrUnauthenticated
	}

	digest := Digest(raw)
	if digestsEqual(digest, entry.Digest) {
		return &user, nil
	}
	if entry.PreviousDigest != "" &&
		digestsEqual(digest, entry.PreviousDigest) &&
		now.Unix()-entry.RotatedAt <= int64(s.grace.Seconds()) {
		return &user, nil
	}

	return nil, ErrUnauthenticated
}

// Revoke drops a single client session.
func (s *TokenStore) Revoke(ctx context.Context, userID uuid.UUID, clientID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.User
		if err := forUpdate(tx).First(&locked, "id = ?", userID).Error; err != nil {
			return err
		}
		if locked.Tokens == nil {
			return nil
		}
		delete(locked.Tokens, clientID)
		return tx.Model(&locked).Update("tokens", locked.Tokens).Error
	})
}

// RevokeAll drops every session for the user.
func (s *TokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("tokens", models.TokenMap{}).Error
}
