package middleware

import (
	"lawconnect/config"
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "lawconnect_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// SessionToken returns the bearer token, falling back to the session cookie
func SessionToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		if token, ok := strings.CutPrefix(h, "Token "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// loadSession resolves the request's session and stores the user in the
// context. It returns false when there is no valid, active session.
func loadSession(c echo.Context) bool {
	token := SessionToken(c)
	if token == "" {
		return false
	}
	session, err := services.ValidateSession(db.DB, token)
	if err != nil || !session.User.IsActive {
		return false
	}
	services.ResolveAvatar(&session.User)
	c.Set(ContextKeyUser, &session.User)
	c.Set(ContextKeySession, session)
	return true
}

// LoadUser attaches the user to the context when a session exists but never
// rejects the request. Used by public pages that change for signed-in users.
func LoadUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			loadSession(c)
			return next(c)
		}
	}
}

// RequireAuth is middleware that requires a cookie session for web pages
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !loadSession(c) {
				if _, err := c.Cookie(SessionCookieName); err == nil {
					ClearSessionCookie(c)
				}
				return redirect(c, "/login")
			}
			return next(c)
		}
	}
}

// RequireRole keeps each role in its own subtree. A user of another role is
// sent to their own dashboard instead of getting an error page.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return redirect(c, "/login")
			}
			if !hasRole(user, roles) {
				return redirect(c, user.DashboardPath())
			}
			return next(c)
		}
	}
}

// RequireAPIAuth authenticates API requests and answers 401 JSON otherwise
func RequireAPIAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !loadSession(c) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided or are invalid.")
			}
			return next(c)
		}
	}
}

// RequireAPIRole answers 403 JSON when the user lacks the role
func RequireAPIRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided or are invalid.")
			}
			if !hasRole(user, roles) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

func hasRole(user *models.User, roles []string) bool {
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// redirect sends HTMX requests an HX-Redirect header and everyone else a 303
func redirect(c echo.Context, to string) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", to)
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCurrentSession retrieves the current session from context
func GetCurrentSession(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get("config").(*config.Config)
	return ok && cfg.IsProduction()
}

// SetSessionCookie stores the session token in an HttpOnly cookie
func SetSessionCookie(c echo.Context, session *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}
