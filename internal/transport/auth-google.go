package transport

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/auth"
)

const (
	stateCookie    = "oauth_state"
	stateCookieTTL = 10 * time.Minute
)

func (s *HTTPServer) AuthGoogle(c echo.Context) error {
	state := uuid.New().String()
	c.SetCookie(s.newStateCookie(state, int(stateCookieTTL.Seconds())))
	return c.Redirect(http.StatusTemporaryRedirect, s.verifier.AuthCodeURL(state))
}

// AuthGoogleCallback hands the frontend a credential on success and sends
// it back to the login page otherwise.
func (s *HTTPServer) AuthGoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	fail := func(reason string, err error) error {
		s.logger.Infow("Google login failed.", "reason", reason, "error", err)
		return c.Redirect(http.StatusFound, s.frontendURL("/login?error=true"))
	}

	if e := c.QueryParam("error"); e != "" {
		return fail("denied", errors.New(e))
	}

	cookie, err := c.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return fail("invalid state", err)
	}
	c.SetCookie(s.newStateCookie("", -1))

	identity, err := s.verifier.Exchange(ctx, c.QueryParam("code"))
	if errors.Is(err, auth.ErrDomainNotAllowed) {
		return fail("domain", err)
	}
	if err != nil {
		return fail("exchange", err)
	}

	user, err := s.svc.UserLogin(ctx, identity)
	if err != nil {
		s.logger.Errorw("Failed to store user on login.", "email", identity.Email, "error", err)
		return fail("login", err)
	}

	token, err := s.jwt.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Errorw("Failed to issue credential.", "user_id", user.ID, "error", err)
		return fail("issue", err)
	}

	q := url.Values{}
	q.Set("token", token)
	return c.Redirect(http.StatusFound, s.frontendURL("/auth-success?"+q.Encode()))
}

func (s *HTTPServer) newStateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookie,
		Value:    value,
		Path:     "/api/auth/google",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.cfg.PublicURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *HTTPServer) frontendURL(path string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + path
}
