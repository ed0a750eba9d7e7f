package service

import (
	"errors"
	"time"

	"github.com/gallerygate/gallerygate-go/internal/crypto"
	"github.com/gallerygate/gallerygate-go/internal/model"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrNoPassword      = errors.New("no password is set for this scope")
)

// AccessService decides whether a visitor may view or download a gallery.
// It is stateless: every decision is derived fresh from the gallery's stored
// credential state and the tokens the request presents. Tokens are bound to
// the stored hash, so an admin changing a password revokes all outstanding
// tokens for that scope without any bookkeeping.
type AccessService struct {
	secret string
	ttl    time.Duration
}

// NewAccessService creates a new AccessService. secret keys the unlock-token
// HMAC; ttl is the lifetime callers should give issued tokens when
// persisting them (e.g. cookie max-age).
func NewAccessService(secret string, ttl time.Duration) *AccessService {
	return &AccessService{secret: secret, ttl: ttl}
}

// TokenTTL returns the lifetime to use when persisting an issued token.
func (s *AccessService) TokenTTL() time.Duration {
	return s.ttl
}

// CanView reports whether the presented view token authorizes viewing.
// Public galleries are always viewable.
func (s *AccessService) CanView(g *model.Gallery, viewToken string) bool {
	if !g.RequiresViewPassword() {
		return true
	}
	if g.ViewHash == "" {
		// Password-protected but no hash stored yet: fail open, matching
		// the admin's not-yet-configured state.
		return true
	}
	return crypto.VerifyUnlockToken(viewToken, s.secret, g.ID, g.ViewHash, model.ScopeView)
}

// CanDownload reports whether the presented tokens authorize downloading.
// Without a separate download password, downloads follow the viewing rules.
// The fallback is evaluated on every call since either password can be
// added or removed independently.
func (s *AccessService) CanDownload(g *model.Gallery, viewToken, downloadToken string) bool {
	if !g.RequiresDownloadPassword() {
		return s.CanView(g, viewToken)
	}
	return crypto.VerifyUnlockToken(downloadToken, s.secret, g.ID, g.DownloadHash, model.ScopeDownload)
}

// IsPrivate reports whether the gallery should be treated as non-indexable.
func (s *AccessService) IsPrivate(g *model.Gallery) bool {
	return g.RequiresViewPassword()
}

// UnlockView verifies a submitted viewing password and, on success, issues a
// token bound to the current stored hash.
func (s *AccessService) UnlockView(g *model.Gallery, password string) (string, error) {
	return s.unlock(g, g.ViewHash, model.ScopeView, password)
}

// UnlockDownload verifies a submitted download password and, on success,
// issues a token bound to the current stored hash.
func (s *AccessService) UnlockDownload(g *model.Gallery, password string) (string, error) {
	return s.unlock(g, g.DownloadHash, model.ScopeDownload, password)
}

func (s *AccessService) unlock(g *model.Gallery, storedHash, scope, password string) (string, error) {
	if storedHash == "" {
		return "", ErrNoPassword
	}

	match, err := crypto.VerifyPassword(password, storedHash)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrInvalidPassword
	}

	return crypto.SignUnlockToken(s.secret, g.ID, storedHash, scope), nil
}
