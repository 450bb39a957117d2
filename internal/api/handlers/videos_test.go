package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta/recipe-box/internal/database/models"
	"github.com/yuta/recipe-box/internal/testutil"
)

func TestVideoUpdate(t *testing.T) {
	env := newTestEnv(t)
	recipe := testutil.CreateTestRecipe(t, env.DB, env.User.ID, "okonomiyaki")

	body := map[string]interface{}{
		"status":        "private",
		"is_embeddable": false,
		"etag":          "v2",
	}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT",
		"/api/v1/videos/"+recipe.Video.ID.String(), body, env.Session))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Message string        `json:"message"`
		Video   *models.Video `json:"video"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	require.NotNil(t, resp.Video)
	assert.Equal(t, models.VideoStatusPrivate, resp.Video.Status)
	assert.False(t, resp.Video.IsEmbeddable)
	assert.Equal(t, "v2", resp.Video.Etag)
}

func TestVideoUpdate_TouchesRecipe(t *testing.T) {
	env := newTestEnv(t)
	recipe := testutil.CreateTestRecipe(t, env.DB, env.User.ID, "sushi")

	var before models.Recipe
	require.NoError(t, env.DB.First(&before, "id = ?", recipe.ID).Error)

	time.Sleep(10 * time.Millisecond)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT",
		"/api/v1/videos/"+recipe.Video.ID.String(),
		map[string]interface{}{"status": "unlisted"}, env.Session))
	testutil.AssertStatus(t, rr, http.StatusOK)

	// Caching fresh metadata bumps the owning recipe so list ordering
	// reflects the change
	var after models.Recipe
	require.NoError(t, env.DB.First(&after, "id = ?", recipe.ID).Error)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestVideoUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT",
		"/api/v1/videos/"+uuid.NewString(),
		map[string]interface{}{"status": "public"}, env.Session))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestVideoUpdate_OtherOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	other := testutil.CreateTestUser(t, env.DB)
	recipe := testutil.CreateTestRecipe(t, env.DB, other.ID, "their dish")

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT",
		"/api/v1/videos/"+recipe.Video.ID.String(),
		map[string]interface{}{"status": "public"}, env.Session))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestVideoUpdate_BadStatus(t *testing.T) {
	env := newTestEnv(t)
	recipe := testutil.CreateTestRecipe(t, env.DB, env.User.ID, "onigiri")

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT",
		"/api/v1/videos/"+recipe.Video.ID.String(),
		map[string]interface{}{"status": "members-only"}, env.Session))
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
}
