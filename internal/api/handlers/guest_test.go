package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/internal/database/models"
	"github.com/yuta/recipe-box/internal/testutil"
)

func createGuestSession(t *testing.T, env *testEnv) auth.Session {
	t.Helper()

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.UnsignedRequest(t, "POST", "/api/v1/auth/guest_user", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	return testutil.SessionFromResponse(rr, auth.Session{})
}

func TestGuestCreate(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.UnsignedRequest(t, "POST", "/api/v1/auth/guest_user", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	assert.NotEmpty(t, rr.Header().Get("access-token"))
	assert.NotEmpty(t, rr.Header().Get("client"))
	assert.NotEmpty(t, rr.Header().Get("uid"))

	var resp struct {
		Message string `json:"message"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, models.RoleGuest, resp.User.Role)
	assert.Contains(t, resp.User.Email, "guest_")
}

func TestGuestCreate_RejectedWhileSignedIn(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "POST", "/api/v1/auth/guest_user", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	// The rejection must not rotate the caller's token out from under them
	var stored models.User
	require.NoError(t, env.DB.First(&stored, "id = ?", env.User.ID).Error)
	assert.Equal(t, auth.Digest(env.Session.Token), stored.Tokens[env.Session.ClientID].Digest)

	rr = httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "GET", "/api/v1/users/"+env.User.ID.String(), nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestGuestCanUseRecipesImmediately(t *testing.T) {
	env := newTestEnv(t)
	sess := createGuestSession(t, env)

	// No confirmation step between guest sign-in and resource access
	body := map[string]interface{}{"name": "instant noodles"}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "POST",
		"/api/v1/users/"+userIDForUID(t, env, sess.UID)+"/recipes", body, sess))
	testutil.AssertStatus(t, rr, http.StatusCreated)
}

func userIDForUID(t *testing.T, env *testEnv, uid string) string {
	t.Helper()

	var user models.User
	require.NoError(t, env.DB.First(&user, "email = ?", uid).Error)
	return user.ID.String()
}

func TestGuestDestroy(t *testing.T) {
	env := newTestEnv(t)
	sess := createGuestSession(t, env)
	guestID := userIDForUID(t, env, sess.UID)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "DELETE", "/api/v1/auth/guest_user", nil, sess))
	testutil.AssertStatus(t, rr, http.StatusOK)

	// The rotated credentials were stripped: the account is gone
	assert.Empty(t, rr.Header().Get("access-token"))
	assert.Empty(t, rr.Header().Get("client"))
	assert.Empty(t, rr.Header().Get("uid"))

	// Physically deleted, not retired
	var count int64
	env.DB.Model(&models.User{}).Where("id = ?", guestID).Count(&count)
	assert.Zero(t, count)
}

func TestGuestDestroy_NormalUserForbidden(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "DELETE", "/api/v1/auth/guest_user", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	var count int64
	env.DB.Model(&models.User{}).Where("id = ?", env.User.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGuestDestroy_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.UnsignedRequest(t, "DELETE", "/api/v1/auth/guest_user", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
