package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.Ingredient{},
		&models.Video{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// MailRecorder captures the lifecycle service's outbound mail intents
// instead of enqueuing asynq tasks.
type MailRecorder struct {
	mu            sync.Mutex
	Confirmations []string // emails
	Resets        []string // emails
	LastToken     string
}

func (m *MailRecorder) EnqueueConfirmationEmail(ctx context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Confirmations = append(m.Confirmations, email)
	m.LastToken = token
	return nil
}

func (m *MailRecorder) EnqueuePasswordResetEmail(ctx context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resets = append(m.Resets, email)
	m.LastToken = token
	return nil
}

func (m *MailRecorder) ConfirmationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Confirmations)
}

func (m *MailRecorder) ResetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Resets)
}

func (m *MailRecorder) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastToken
}

var _ auth.MailEnqueuer = (*MailRecorder)(nil)

func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestSetup holds the common test dependencies: database, token store,
// lifecycle service and a confirmed signed-in user.
type TestSetup struct {
	DB      *gorm.DB
	Tokens  *auth.TokenStore
	Links   *auth.LinkTokenService
	Service *auth.Service
	Mail    *MailRecorder
	User    *models.User
	Session auth.Session
}

// NewTestContext builds a full test setup. The returned session belongs to
// the returned user.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	tokens := auth.NewTokenStore(db, 24*time.Hour, 5*time.Second)
	links := auth.NewLinkTokenService("test-secret-key-for-testing", 24*time.Hour)
	mail := &MailRecorder{}
	service := auth.NewService(db, tokens, links, mail, 4*time.Hour, TestLogger())

	user := CreateTestUser(t, db)
	sess, err := tokens.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to issue test session: %v", err)
	}

	return &TestSetup{
		DB:      db,
		Tokens:  tokens,
		Links:   links,
		Service: service,
		Mail:    mail,
		User:    user,
		Session: sess,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// CreateTestUser creates a confirmed normal user
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		Base:           models.Base{ID: uuid.New()},
		Email:          "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordDigest: hash,
		Role:           models.RoleNormal,
		ConfirmedAt:    &now,
		Tokens:         models.TokenMap{},
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestGuest creates a guest user
func CreateTestGuest(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("guestpassword1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		Base:           models.Base{ID: uuid.New()},
		Email:          "guest_" + uuid.New().String()[:8] + "@example.com",
		PasswordDigest: hash,
		Role:           models.RoleGuest,
		ConfirmedAt:    &now,
		Tokens:         models.TokenMap{},
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test guest: %v", err)
	}

	return user
}

// CreateTestRecipe creates a recipe with one ingredient and a video
func CreateTestRecipe(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		Base:   models.Base{ID: uuid.New()},
		UserID: userID,
		Name:   name,
		Notes:  "test notes",
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}

	ingredient := &models.Ingredient{
		RecipeID: recipe.ID,
		Name:     "soy sauce",
		Quantity: 2,
		Unit:     "tbsp",
		Category: models.CategorySeasoning,
	}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}

	video := &models.Video{
		RecipeID:     recipe.ID,
		VideoID:      "vid-" + uuid.New().String()[:8],
		ThumbnailURL: "https://img.example.com/thumb.jpg",
		Status:       models.VideoStatusPublic,
		IsEmbeddable: true,
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}

	recipe.Ingredients = []models.Ingredient{*ingredient}
	recipe.Video = video
	return recipe
}

// SignedRequest creates an HTTP request carrying the session header triple
func SignedRequest(t *testing.T, method, path string, body interface{}, sess auth.Session) *http.Request {
	t.Helper()

	req := UnsignedRequest(t, method, path, body)
	req.Header.Set("access-token", sess.Token)
	req.Header.Set("client", sess.ClientID)
	req.Header.Set("uid", sess.UID)
	return req
}

// UnsignedRequest creates an HTTP request without session headers
func UnsignedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// SessionFromResponse reads the rotated session headers off a response
func SessionFromResponse(rr *httptest.ResponseRecorder, fallback auth.Session) auth.Session {
	sess := fallback
	if token := rr.Header().Get("access-token"); token != "" {
		sess.Token = token
	}
	if client := rr.Header().Get("client"); client != "" {
		sess.ClientID = client
	}
	if uid := rr.Header().Get("uid"); uid != "" {
		sess.UID = uid
	}
	return sess
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
