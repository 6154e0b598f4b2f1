package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

// The session key and form field share one name so the editor templates
// only need a single constant.
const (
	CSRFSessionKey = "csrf_token"
	CSRFFormField  = "csrf_token"
)

// CSRFManager guards the editor's mutating forms. One token is minted
// per session and kept server-side; discarding a draft rotates it.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager builds a CSRFManager keyed with secret.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken returns the session's token, minting one on first use.
func (m *CSRFManager) EnsureToken(ctx context.Context, sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("session missing")
	}
	if token := sess.Get(CSRFSessionKey); token != "" {
		return token, nil
	}
	token := m.mintToken(sess.ID)
	sess.Set(CSRFSessionKey, token)
	return token, nil
}

// Rotate drops the session's token so the next render mints a fresh one.
func (m *CSRFManager) Rotate(sess *Session) {
	if sess == nil {
		return
	}
	sess.Delete(CSRFSessionKey)
}

// VerifyToken checks a submitted token against the session's token in
// constant time.
func (m *CSRFManager) VerifyToken(ctx context.Context, sess *Session, token string) error {
	if sess == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	expected := sess.Get(CSRFSessionKey)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// mintToken derives an opaque token from a random nonce bound to the
// session id, so tokens stay unpredictable even for a known id.
func (m *CSRFManager) mintToken(sessionID string) string {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		binary.BigEndian.PutUint64(nonce, uint64(time.Now().UnixNano()))
	}
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write(nonce)
	_, _ = mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nonce))
}
