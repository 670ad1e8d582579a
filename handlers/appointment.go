package handlers

import (
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type appointmentForm struct {
	Status      string `json:"status" form:"status"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	StartTime   string `json:"start_time" form:"start_time"`
	EndTime     string `json:"end_time" form:"end_time"`
	ClientID    string `json:"client" form:"client_id"`
	LawyerID    string `json:"lawyer" form:"lawyer_id"`
	CaseID      string `json:"case" form:"case_id"`
}

func (f appointmentForm) input() (services.AppointmentInput, error) {
	start, err := parseDateTime(f.StartTime)
	if err != nil {
		return services.AppointmentInput{}, services.NewValidationError("Enter a valid start time.")
	}
	end, err := parseDateTime(f.EndTime)
	if err != nil {
		return services.AppointmentInput{}, services.NewValidationError("Enter a valid end time.")
	}
	return services.AppointmentInput{
		Title:       f.Title,
		Description: f.Description,
		StartTime:   start,
		EndTime:     end,
		ClientID:    f.ClientID,
		LawyerID:    f.LawyerID,
		CaseID:      f.CaseID,
	}, nil
}

// parseDateTime accepts RFC 3339 from the API and datetime-local values from forms
func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, time.Local)
}

// AppointmentsHandler renders the appointment table and scheduling form
func AppointmentsHandler(c echo.Context) error {
	user := mustUser(c)
	filter := listFilter(c)
	data := pages.AppointmentsPage{
		Shell:  shell(c, "Appointments", "appointments"),
		Filter: filter,
		Error:  c.QueryParam("error"),
	}

	appointments, err := services.ListAppointments(db.DB, user, filter)
	if err != nil {
		log.Printf("[WARNING] list appointments for %s: %v", user.ID, err)
	}
	for i := range appointments {
		data.Rows = append(data.Rows, partials.AppointmentRow{Appointment: &appointments[i], Viewer: user, CSRF: data.CSRF})
	}

	if user.IsLawyer() {
		data.Counterparts, _ = services.ListClients(db.DB, "")
		data.Cases, _ = services.ListAssignedCases(db.DB, user.ID, "")
	} else {
		data.Counterparts, _ = services.ListLawyers(db.DB, services.DirectoryFilter{})
		if cases, err := services.ListCasesForUser(db.DB, user, services.ListFilter{}); err == nil {
			for _, k := range cases {
				if k.IsAccepted() {
					data.Cases = append(data.Cases, k)
				}
			}
		}
	}
	return renderPage(c, "appointments", data)
}

// CreateAppointmentHandler schedules an appointment from the page form
func CreateAppointmentHandler(c echo.Context) error {
	back := area(c) + "/appointments"
	var form appointmentForm
	if err := c.Bind(&form); err != nil {
		return fail(c, services.NewValidationError("Invalid form."), back)
	}
	in, err := form.input()
	if err != nil {
		return fail(c, err, back)
	}
	if _, err := services.CreateAppointment(db.DB, mustUser(c), in); err != nil {
		return fail(c, err, back)
	}
	return done(c, back)
}

// AppointmentStatusHandler changes the status and returns the updated row
func AppointmentStatusHandler(c echo.Context) error {
	user := mustUser(c)
	back := area(c) + "/appointments"
	if _, err := services.UpdateAppointmentStatus(db.DB, user, c.Param("id"), c.FormValue("status")); err != nil {
		return fail(c, err, back)
	}
	if !isHTMX(c) {
		return done(c, back)
	}
	apt, err := services.GetAppointmentForUser(db.DB, user, c.Param("id"))
	if err != nil {
		return fail(c, err, back)
	}
	return render(c, http.StatusOK, partials.AppointmentRowView(partials.AppointmentRow{
		Appointment: apt,
		Viewer:      user,
		CSRF:        middleware.GetCSRFToken(c),
	}))
}

// API

func APIListAppointmentsHandler(c echo.Context) error {
	appointments, err := services.ListAppointments(db.DB, mustUser(c), listFilter(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, appointments)
}

func APIGetAppointmentHandler(c echo.Context) error {
	apt, err := services.GetAppointmentForUser(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, apt)
}

func APICreateAppointmentHandler(c echo.Context) error {
	var form appointmentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	in, err := form.input()
	if err != nil {
		return apiError(c, err)
	}
	apt, err := services.CreateAppointment(db.DB, mustUser(c), in)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, apt)
}

// APIUpdateAppointmentHandler reschedules when times are given and applies
// a status change when one is given.
func APIUpdateAppointmentHandler(c echo.Context) error {
	var body appointmentForm
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	user := mustUser(c)
	id := c.Param("id")

	var apt *models.Appointment
	if body.StartTime != "" || body.EndTime != "" {
		in, err := body.input()
		if err != nil {
			return apiError(c, err)
		}
		if apt, err = services.RescheduleAppointment(db.DB, user, id, in); err != nil {
			return apiError(c, err)
		}
	}
	if body.Status != "" {
		var err error
		if apt, err = services.UpdateAppointmentStatus(db.DB, user, id, body.Status); err != nil {
			return apiError(c, err)
		}
	}
	if apt == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}
	return c.JSON(http.StatusOK, apt)
}

func APIDeleteAppointmentHandler(c echo.Context) error {
	if err := services.DeleteAppointment(db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
