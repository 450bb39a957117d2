package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/testutil"
)

type profileEnvelope struct {
	Message string              `json:"message"`
	User    dto.ProfileResponse `json:"user"`
}

func userPath(env *testEnv) string {
	return "/api/v1/users/" + env.User.ID.String()
}

func TestProfileShow(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "GET", userPath(env)+"/", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp profileEnvelope
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, env.User.ID.String(), resp.User.ID)
	assert.Empty(t, resp.User.ProfileImageURL)
}

func TestProfileShow_OtherUserForbidden(t *testing.T) {
	env := newTestEnv(t)
	other := testutil.CreateTestUser(t, env.DB)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "GET",
		"/api/v1/users/"+other.ID.String()+"/", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestProfileUpdate_Username(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"username": "chef_yuki"}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT", userPath(env)+"/", body, env.Session))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp profileEnvelope
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "chef_yuki", resp.User.Username)
}

func TestProfileUpdate_UsernameTooLong(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"username": "a-very-long-username-over-twenty"}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "PUT", userPath(env)+"/", body, env.Session))
	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)

	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Contains(t, resp.Details, "username")
}

func multipartProfileRequest(t *testing.T, env *testEnv, username string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("username", username))
	if image != nil {
		part, err := writer.CreateFormFile("profile_image", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("PUT", userPath(env)+"/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("access-token", env.Session.Token)
	req.Header.Set("client", env.Session.ClientID)
	req.Header.Set("uid", env.Session.UID)
	return req
}

func TestProfileUpdate_ImageUpload(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, multipartProfileRequest(t, env, "uploader", []byte("png-bytes")))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp profileEnvelope
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "uploader", resp.User.Username)
	assert.NotEmpty(t, resp.User.ProfileImageURL)
	assert.Equal(t, 1, env.Images.Len())
}

func TestProfileImageDelete(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, multipartProfileRequest(t, env, "uploader", []byte("png-bytes")))
	testutil.AssertStatus(t, rr, http.StatusOK)
	require.Equal(t, 1, env.Images.Len())

	rr = httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "DELETE",
		userPath(env)+"/profile_image", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Zero(t, env.Images.Len())

	// Nothing left to delete
	rr = httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "DELETE",
		userPath(env)+"/profile_image", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestProfileImageDelete_NoneSet(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, testutil.SignedRequest(t, "DELETE",
		userPath(env)+"/profile_image", nil, env.Session))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
