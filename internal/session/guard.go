package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/domain/entity"
)

// Cookie names. userId and branchCode are the identity cookies read by the
// browser; estr_session carries the signed token.
const (
	CookieUserID     = "userId"
	CookieBranchCode = "branchCode"
	CookieSession    = "estr_session"
)

// SignInPath is where unauthenticated browsers are sent
const SignInPath = "/signin"

const profileKey = "estr.profile"

// Start sets the identity and session cookies for a freshly signed-in user
func (m *Manager) Start(c *gin.Context, profile *entity.Profile) error {
	token, expires, err := m.Issue(profile)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(expires).Seconds())
	m.setCookie(c, CookieUserID, profile.UserID, maxAge, false)
	m.setCookie(c, CookieBranchCode, profile.BranchCode, maxAge, false)
	m.setCookie(c, CookieSession, token, maxAge, true)
	return nil
}

// End clears every session cookie
func (m *Manager) End(c *gin.Context) {
	for _, name := range []string{CookieUserID, CookieBranchCode, CookieSession} {
		m.setCookie(c, name, "", -1, name == CookieSession)
	}
}

func (m *Manager) setCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", m.cfg.CookieDomain, m.cfg.SecureCookie, httpOnly)
}

// Resolve returns the signed-in user of the request. The userId cookie must be
// present and match the user inside a valid session token.
func (m *Manager) Resolve(r *http.Request) (*entity.Profile, error) {
	idCookie, err := r.Cookie(CookieUserID)
	if err != nil || idCookie.Value == "" {
		return nil, ErrNoSession
	}
	tokenCookie, err := r.Cookie(CookieSession)
	if err != nil {
		return nil, ErrNoSession
	}

	claims, err := m.Parse(tokenCookie.Value)
	if err != nil {
		return nil, err
	}
	if claims.UserID != idCookie.Value {
		return nil, ErrUserMismatch
	}
	return claims.Profile(), nil
}

// Guard rejects requests without a valid session. Browser routes are
// redirected to the sign-in page; /api and /ws routes get 401.
func (m *Manager) Guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == SignInPath {
			c.Next()
			return
		}

		profile, err := m.Resolve(c.Request)
		if err != nil {
			if isAPIPath(path) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "unauthorized",
				})
				return
			}
			c.Redirect(http.StatusFound, SignInPath)
			c.Abort()
			return
		}

		c.Set(profileKey, profile)
		c.Next()
	}
}

// IsSignedIn reports whether the request carries a valid session
func (m *Manager) IsSignedIn(r *http.Request) bool {
	_, err := m.Resolve(r)
	return err == nil
}

// CurrentUser returns the user stored by Guard
func CurrentUser(c *gin.Context) (*entity.Profile, bool) {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil, false
	}
	profile, ok := v.(*entity.Profile)
	return profile, ok
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/") ||
		path == "/ws" || strings.HasPrefix(path, "/ws/")
}
