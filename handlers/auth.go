package handlers

import (
	"errors"
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// authResponse is the body of a successful API login or registration
type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// LoginHandler renders the login page
func LoginHandler(c echo.Context) error {
	if user := middleware.GetCurrentUser(c); user != nil {
		return c.Redirect(http.StatusSeeOther, user.DashboardPath())
	}
	return renderPage(c, "login", pages.LoginPage{
		Shell: shell(c, "Sign in", ""),
		Error: c.QueryParam("error"),
	})
}

// LoginPostHandler handles the login form submission
func LoginPostHandler(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	user, session, err := services.Authenticate(db.DB, services.LoginInput{
		Email:     email,
		Password:  c.FormValue("password"),
		Code:      c.FormValue("code"),
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		data := pages.LoginPage{
			Shell:    shell(c, "Sign in", ""),
			Email:    email,
			NeedTOTP: services.IsTwoFactorError(err),
		}
		switch {
		case errors.Is(err, services.ErrTOTPRequired):
			data.Error = "Enter the code from your authenticator app."
		case errors.Is(err, services.ErrInvalidTOTP):
			data.Error = "That code is not valid. Try again."
		default:
			data.Error = errorMessage(err)
		}
		return render(c, http.StatusOK, pages.Render("login", data))
	}

	middleware.SetSessionCookie(c, session)
	return done(c, user.DashboardPath())
}

// RegisterHandler renders the registration page
func RegisterHandler(c echo.Context) error {
	if user := middleware.GetCurrentUser(c); user != nil {
		return c.Redirect(http.StatusSeeOther, user.DashboardPath())
	}
	return renderPage(c, "register", pages.RegisterPage{
		Shell: shell(c, "Create account", ""),
		Form:  pages.RegisterForm{Role: c.QueryParam("role")},
	})
}

// RegisterPostHandler creates the account and signs the new user in
func RegisterPostHandler(c echo.Context) error {
	user, session, err := register(c)
	if err != nil {
		if isHTMX(c) {
			return alert(c, http.StatusOK, "error", errorMessage(err))
		}
		return render(c, errorStatus(err), pages.Render("register", pages.RegisterPage{
			Shell: shell(c, "Create account", ""),
			Form: pages.RegisterForm{
				Username:       c.FormValue("username"),
				Email:          c.FormValue("email"),
				Phone:          c.FormValue("phone"),
				Role:           c.FormValue("role"),
				Specialization: c.FormValue("specialization"),
				License:        c.FormValue("license"),
				Firm:           c.FormValue("firm"),
			},
			Error: errorMessage(err),
		}))
	}

	middleware.SetSessionCookie(c, session)
	return done(c, user.DashboardPath())
}

// register is shared by the page and API registration endpoints
func register(c echo.Context) (*models.User, *models.Session, error) {
	avatar, err := c.FormFile("avatar")
	if err != nil {
		avatar = nil
	}

	user, err := services.RegisterUser(c.Request().Context(), db.DB, services.RegistrationInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
		Phone:           c.FormValue("phone"),
		Role:            c.FormValue("role"),
		Specialization:  c.FormValue("specialization"),
		License:         c.FormValue("license"),
		Firm:            c.FormValue("firm"),
		Avatar:          avatar,
	})
	if err != nil {
		return nil, nil, err
	}

	cfg := appConfig(c)
	services.SendEmailAsync(cfg, services.BuildWelcomeEmail(cfg.AppURL, user.Email, user.Name, user.Role, user.DashboardPath()))

	session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return nil, nil, err
	}
	services.ResolveAvatar(user)
	return user, session, nil
}

// LogoutHandler ends the session
func LogoutHandler(c echo.Context) error {
	if token := middleware.SessionToken(c); token != "" {
		if err := services.DeleteSession(db.DB, token); err != nil {
			c.Logger().Errorf("Failed to delete session: %v", err)
		}
	}
	middleware.ClearSessionCookie(c)
	return done(c, "/login")
}

// APILoginHandler returns {user, token} for valid credentials
func APILoginHandler(c echo.Context) error {
	var body struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
		Code     string `json:"code" form:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, session, err := services.Authenticate(db.DB, services.LoginInput{
		Email:     body.Email,
		Password:  body.Password,
		Code:      body.Code,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return apiError(c, err)
	}
	services.ResolveAvatar(user)
	return c.JSON(http.StatusOK, authResponse{User: user, Token: session.Token})
}

// APIRegisterHandler registers from a multipart form and returns {user, token}
func APIRegisterHandler(c echo.Context) error {
	user, session, err := register(c)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, authResponse{User: user, Token: session.Token})
}

// APILogoutHandler deletes the bearer session
func APILogoutHandler(c echo.Context) error {
	if err := services.DeleteSession(db.DB, middleware.SessionToken(c)); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// APIMeHandler returns the authenticated user
func APIMeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, mustUser(c))
}

// APIUpdateMeHandler applies a partial update to the authenticated user
func APIUpdateMeHandler(c echo.Context) error {
	var in services.UpdateUserInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	user := mustUser(c)
	if err := services.UpdateUser(db.DB, user, in); err != nil {
		return apiError(c, err)
	}
	services.ResolveAvatar(user)
	return c.JSON(http.StatusOK, user)
}
