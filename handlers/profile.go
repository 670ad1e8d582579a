package handlers

import (
	"encoding/base64"
	"html/template"
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ProfileHandler renders account settings, practice details and 2FA
func ProfileHandler(c echo.Context) error {
	user, err := services.GetUserByID(db.DB, mustUser(c).ID)
	if err != nil {
		return pageError(c, err)
	}
	s := shell(c, "Profile", "profile")
	s.User = user
	s.Flash = ""
	return renderPage(c, "profile", pages.ProfilePage{
		Shell:   s,
		Profile: user.LawyerProfile,
		Error:   c.QueryParam("error"),
		Saved:   c.QueryParam("saved") != "",
	})
}

// UpdateProfileHandler saves account fields and preferences. Unchecked
// boxes are absent from the form and mean false.
func UpdateProfileHandler(c echo.Context) error {
	back := area(c) + "/profile"
	name, email, phone, password := c.FormValue("name"), c.FormValue("email"), c.FormValue("phone"), c.FormValue("password")
	checked := func(field string) *bool {
		v := c.FormValue(field) == "true"
		return &v
	}
	in := services.UpdateUserInput{
		Name:        &name,
		Email:       &email,
		Phone:       &phone,
		NotifyEmail: checked("notify_email"),
		NotifySMS:   checked("notify_sms"),
		NotifyPush:  checked("notify_push"),
		ShowProfile: checked("show_profile"),
		ShareData:   checked("share_data"),
	}
	if password != "" {
		in.Password = &password
	}
	user := mustUser(c)
	if err := services.UpdateUser(db.DB, user, in); err != nil {
		return fail(c, err, back)
	}
	if password != "" {
		// a password change signs out every other device
		if err := services.DeleteAllUserSessions(db.DB, user.ID, middleware.SessionToken(c)); err != nil {
			c.Logger().Errorf("Failed to revoke sessions: %v", err)
		}
	}
	return done(c, back+"?saved=1")
}

// UpdatePracticeHandler saves the lawyer profile
func UpdatePracticeHandler(c echo.Context) error {
	spec, license, firm, bio := c.FormValue("specialization"), c.FormValue("license"), c.FormValue("firm"), c.FormValue("bio")
	in := services.LawyerProfileInput{Specialization: &spec, License: &license, Firm: &firm, Bio: &bio}
	if raw := strings.TrimSpace(c.FormValue("per_case_charge")); raw != "" {
		charge, err := services.ParseAmount(raw)
		if err != nil {
			return fail(c, err, "/lawyer/profile")
		}
		in.PerCaseCharge = &charge
	}
	if _, err := services.UpdateLawyerProfile(db.DB, mustUser(c), in); err != nil {
		return fail(c, err, "/lawyer/profile")
	}
	return done(c, "/lawyer/profile?saved=1")
}

// UploadAvatarHandler replaces the profile photo
func UploadAvatarHandler(c echo.Context) error {
	back := area(c) + "/profile"
	file, err := c.FormFile("avatar")
	if err != nil {
		return fail(c, services.NewValidationError("Choose an image to upload."), back)
	}
	if err := services.SetAvatar(c.Request().Context(), db.DB, mustUser(c), file); err != nil {
		return fail(c, err, back)
	}
	return done(c, back+"?saved=1")
}

// AvatarHandler serves a user's avatar from storage
func AvatarHandler(c echo.Context) error {
	user, err := services.GetUserByID(db.DB, c.Param("id"))
	if err != nil || user.AvatarKey == "" || services.Storage == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	reader, contentType, err := services.Storage.Get(c.Request().Context(), user.AvatarKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	defer reader.Close()
	return copyBody(c, contentType, reader)
}

// SetupTwoFactorHandler starts enrollment and returns the QR fragment
func SetupTwoFactorHandler(c echo.Context) error {
	setup, err := services.SetupTwoFactor(db.DB, mustUser(c), appConfig(c).TOTPIssuer)
	if err != nil {
		return fail(c, err, area(c)+"/profile")
	}
	return render(c, http.StatusOK, partials.TwoFactorSetupView(partials.TwoFactorSetup{
		Secret:    setup.Secret,
		QRDataURI: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(setup.QRCode)),
		Area:      area(c),
		CSRF:      middleware.GetCSRFToken(c),
	}))
}

// VerifyTwoFactorHandler enables 2FA once a code checks out
func VerifyTwoFactorHandler(c echo.Context) error {
	if err := services.VerifyTwoFactor(db.DB, mustUser(c), c.FormValue("code")); err != nil {
		if isHTMX(c) {
			return alert(c, http.StatusOK, "error", "That code is not valid. Scan the QR code again and retry.")
		}
		return fail(c, err, area(c)+"/profile")
	}
	return done(c, area(c)+"/profile?saved=1")
}

// DisableTwoFactorHandler turns 2FA off with password and code
func DisableTwoFactorHandler(c echo.Context) error {
	if err := services.DisableTwoFactor(db.DB, mustUser(c), c.FormValue("password"), c.FormValue("code")); err != nil {
		return fail(c, err, area(c)+"/profile")
	}
	return done(c, area(c)+"/profile?saved=1")
}

// API

// APISetupTwoFactorHandler returns the secret, otpauth URL and a base64 PNG
func APISetupTwoFactorHandler(c echo.Context) error {
	setup, err := services.SetupTwoFactor(db.DB, mustUser(c), appConfig(c).TOTPIssuer)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"secret":  setup.Secret,
		"url":     setup.URL,
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(setup.QRCode),
	})
}

func APIVerifyTwoFactorHandler(c echo.Context) error {
	var body struct {
		Code string `json:"code" form:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := services.VerifyTwoFactor(db.DB, mustUser(c), body.Code); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "2FA enabled"})
}

func APIDisableTwoFactorHandler(c echo.Context) error {
	var body struct {
		Password string `json:"password" form:"password"`
		Code     string `json:"code" form:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := services.DisableTwoFactor(db.DB, mustUser(c), body.Password, body.Code); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "2FA disabled"})
}
