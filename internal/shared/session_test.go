package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "invoicegen_session", "test-secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := testManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	sess.Set("draft", `{"number":"INV-1"}`)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "invoicegen_session", cookies[0].Name)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	sess2, err := sm.Load(ctx, req2)
	require.NoError(t, err)
	require.Equal(t, sess.ID, sess2.ID)
	require.Equal(t, `{"number":"INV-1"}`, sess2.Get("draft"))
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm := testManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "invoicegen_session", Value: "gone"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "gone", sess.ID)
	require.Empty(t, sess.Get("draft"))
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	sm := testManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("draft", "x")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	sm.Destroy(sess)
	rec2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec2, sess))
	cookies := rec2.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionFlashDrainsInOrder(t *testing.T) {
	sm := testManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	sess.AddFlash(FlashMessage{Kind: "success", Message: "item added"})
	sess.AddFlash(FlashMessage{Kind: "error", Message: "bad rate"})

	first := sess.PopFlash()
	require.NotNil(t, first)
	require.Equal(t, "item added", first.Message)
	second := sess.PopFlash()
	require.NotNil(t, second)
	require.Equal(t, "bad rate", second.Message)
	require.Nil(t, sess.PopFlash())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm := testManager(t)
	csrf := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
}

func TestCSRFTokenRotates(t *testing.T) {
	sm := testManager(t)
	csrf := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)

	csrf.Rotate(sess)
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, token), ErrCSRFTokenMissing)

	fresh, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEqual(t, token, fresh)
	require.NoError(t, csrf.VerifyToken(ctx, sess, fresh))
}
