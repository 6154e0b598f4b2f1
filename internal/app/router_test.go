package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/elitepdf/invoicegen/internal/editor"
	"github.com/elitepdf/invoicegen/internal/invoice"
	"github.com/elitepdf/invoicegen/internal/render"
	"github.com/elitepdf/invoicegen/internal/shared"
	"github.com/elitepdf/invoicegen/internal/view"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{
		AppEnv:            "test",
		AppRequestTimeout: 5 * time.Second,
	}

	sessions := shared.NewSessionManager(client, "invoicegen_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")

	templates, err := view.NewEngine()
	require.NoError(t, err)

	handler := editor.NewHandler(logger, templates, csrf, render.NewFPDF(), editor.Config{
		Seed:  editor.Seed{Seller: invoice.PartyInfo{Name: "Tech Solutions Hub"}},
		Title: "INVOICE",
		Page:  render.DefaultPage,
	})

	return NewRouter(RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		EditorHandler:  handler,
	})
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"ok"`)
}

func TestEditorPageSetsSessionCookie(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Tech Solutions Hub")

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "invoicegen_session" && c.Value != "" {
			found = true
		}
	}
	require.True(t, found, "expected a session cookie on first visit")
}

func TestMutationWithoutCSRFTokenRejected(t *testing.T) {
	router := newTestRouter(t)

	form := url.Values{"number": {"INV-2024-007"}}
	req := httptest.NewRequest(http.MethodPost, "/invoice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStaticAssetServed(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}
