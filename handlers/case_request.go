package handlers

import (
	"lawconnect/db"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

type caseRequestForm struct {
	CaseID   string `json:"case" form:"case_id"`
	LawyerID string `json:"lawyer" form:"lawyer_id"`
	Message  string `json:"message" form:"message"`
}

// CaseRequestsHandler lists requests sent by a client or addressed to a lawyer
func CaseRequestsHandler(c echo.Context) error {
	user := mustUser(c)
	status := c.QueryParam("status")
	reqs, err := services.ListCaseRequests(db.DB, user, status)
	if err != nil {
		log.Printf("[WARNING] list case requests for %s: %v", user.ID, err)
	}
	return renderPage(c, "case_requests", pages.CaseRequestsPage{
		Shell:    shell(c, "Case requests", "requests"),
		Requests: reqs,
		Status:   status,
	})
}

// CreateCaseRequestHandler sends a case to a lawyer
func CreateCaseRequestHandler(c echo.Context) error {
	var form caseRequestForm
	if err := c.Bind(&form); err != nil {
		return fail(c, services.NewValidationError("Invalid form."), "/client/requests")
	}
	back := "/client/lawyers/" + form.LawyerID
	if c.FormValue("from") == "case" || form.LawyerID == "" {
		back = "/client/cases/" + form.CaseID
	}
	if _, err := services.CreateCaseRequest(db.DB, mustUser(c), services.CaseRequestInput{
		CaseID:   form.CaseID,
		LawyerID: form.LawyerID,
		Message:  form.Message,
	}); err != nil {
		return fail(c, err, back)
	}
	return done(c, "/client/requests")
}

// RespondCaseRequestHandler accepts or rejects a request addressed to the lawyer
func RespondCaseRequestHandler(c echo.Context) error {
	lawyer := mustUser(c)
	_, accepted, err := services.RespondCaseRequest(db.DB, lawyer, c.Param("id"), c.FormValue("decision"))
	if err != nil {
		return fail(c, err, "/lawyer/requests")
	}
	if accepted != nil {
		sendCaseAcceptedEmail(c, accepted, lawyer)
		return done(c, "/lawyer/cases/"+accepted.Case.ID)
	}
	return done(c, "/lawyer/requests")
}

// WithdrawCaseRequestHandler deletes a pending request of the client
func WithdrawCaseRequestHandler(c echo.Context) error {
	if err := services.DeleteCaseRequest(db.DB, mustUser(c), c.Param("id")); err != nil {
		return fail(c, err, "/client/requests")
	}
	return done(c, "/client/requests")
}

// API

func APIListCaseRequestsHandler(c echo.Context) error {
	reqs, err := services.ListCaseRequests(db.DB, mustUser(c), c.QueryParam("status"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, reqs)
}

func APIGetCaseRequestHandler(c echo.Context) error {
	req, err := services.GetCaseRequestForUser(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func APICreateCaseRequestHandler(c echo.Context) error {
	var form caseRequestForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	req, err := services.CreateCaseRequest(db.DB, mustUser(c), services.CaseRequestInput{
		CaseID:   form.CaseID,
		LawyerID: form.LawyerID,
		Message:  form.Message,
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}

// APIRespondCaseRequestHandler takes {"status": "accepted"|"rejected"}
func APIRespondCaseRequestHandler(c echo.Context) error {
	var body struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	lawyer := mustUser(c)
	req, accepted, err := services.RespondCaseRequest(db.DB, lawyer, c.Param("id"), body.Status)
	if err != nil {
		return apiError(c, err)
	}
	if accepted != nil {
		sendCaseAcceptedEmail(c, accepted, lawyer)
	}
	return c.JSON(http.StatusOK, req)
}

func APIDeleteCaseRequestHandler(c echo.Context) error {
	if err := services.DeleteCaseRequest(db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
