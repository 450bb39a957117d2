package handlers_test

import (
	"net/http"
	"testing"

	"github.com/yuta/recipe-box/internal/api"
	"github.com/yuta/recipe-box/internal/storage"
	"github.com/yuta/recipe-box/internal/testutil"
	"github.com/yuta/recipe-box/pkg/config"
)

type testEnv struct {
	*testutil.TestSetup
	Router http.Handler
	Images *storage.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ts := testutil.NewTestContext(t)
	t.Cleanup(ts.Cleanup)

	images := storage.NewMemoryStore()
	router := api.NewRouter(api.RouterConfig{
		DB:          ts.DB,
		Logger:      testutil.TestLogger(),
		TokenStore:  ts.Tokens,
		AuthService: ts.Service,
		Images:      images,
		Frontend: config.FrontendConfig{
			ConfirmationURL:  "http://front.example.com/confirmed",
			PasswordResetURL: "http://front.example.com/reset",
		},
	})

	return &testEnv{TestSetup: ts, Router: router, Images: images}
}
