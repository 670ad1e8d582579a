package handlers

import (
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// caseForm binds both form posts and JSON bodies
type caseForm struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Type        string `json:"type" form:"type"`
}

func (f caseForm) input() services.CaseInput {
	return services.CaseInput{Title: f.Title, Description: f.Description, Type: f.Type}
}

func listFilter(c echo.Context) services.ListFilter {
	return services.ListFilter{Status: c.QueryParam("status"), Query: c.QueryParam("q")}
}

// CasesHandler renders the case list
func CasesHandler(c echo.Context) error {
	user := mustUser(c)
	filter := listFilter(c)

	cases, err := services.ListCasesForUser(db.DB, user, filter)
	if err != nil {
		log.Printf("[WARNING] list cases for %s: %v", user.ID, err)
	}
	counts, err := services.CaseStatusCounts(db.DB, user)
	if err != nil {
		counts = map[string]int64{}
	}
	var all int64
	for _, n := range counts {
		all += n
	}
	counts["all"] = all

	return renderPage(c, "cases", pages.CasesPage{
		Shell:  shell(c, "Cases", "cases"),
		Cases:  cases,
		Filter: filter,
		Counts: counts,
		Error:  c.QueryParam("error"),
	})
}

// CaseDetailHandler renders one case with its timeline, documents and invoices
func CaseDetailHandler(c echo.Context) error {
	user := mustUser(c)
	kase, err := services.GetCaseForUser(db.DB, user, c.Param("id"))
	if err != nil {
		return pageError(c, err)
	}

	data := pages.CaseDetailPage{
		Shell:     shell(c, kase.Title, "cases"),
		Case:      kase,
		Updates:   kase.Updates,
		CanAccept: user.IsLawyer() && kase.IsAcceptable(),
		Error:     c.QueryParam("error"),
	}
	if docs, err := services.ListDocuments(db.DB, user, services.DocumentFilter{CaseID: kase.ID}); err == nil {
		data.Documents = docs
	}
	if invoices, err := services.ListInvoices(db.DB, user, services.ListFilter{}); err == nil {
		csrf := data.CSRF
		for i := range invoices {
			if invoices[i].CaseID == kase.ID {
				data.Invoices = append(data.Invoices, partials.InvoiceRow{Invoice: &invoices[i], Viewer: user, CSRF: csrf})
			}
		}
	}
	if user.IsClient() && !kase.IsAccepted() {
		if reqs, err := services.ListCaseRequests(db.DB, user, ""); err == nil {
			for _, r := range reqs {
				if r.CaseID == kase.ID {
					data.Requests = append(data.Requests, r)
				}
			}
		}
		if lawyers, err := services.ListLawyers(db.DB, services.DirectoryFilter{}); err == nil {
			data.Lawyers = lawyers
		}
	}
	return renderPage(c, "case_detail", data)
}

// CreateCaseHandler opens a case for the current client
func CreateCaseHandler(c echo.Context) error {
	var form caseForm
	if err := c.Bind(&form); err != nil {
		return fail(c, services.NewValidationError("Invalid form."), "/client/cases")
	}
	kase, err := services.CreateCase(db.DB, mustUser(c), form.input())
	if err != nil {
		return fail(c, err, "/client/cases")
	}
	return done(c, "/client/cases/"+kase.ID)
}

// UpdateCaseStatusHandler changes the status of a case
func UpdateCaseStatusHandler(c echo.Context) error {
	back := area(c) + "/cases/" + c.Param("id")
	if _, err := services.UpdateCaseStatus(db.DB, mustUser(c), c.Param("id"), c.FormValue("status")); err != nil {
		return fail(c, err, back)
	}
	return done(c, back)
}

// DeleteCaseHandler removes an open case owned by the client
func DeleteCaseHandler(c echo.Context) error {
	if err := services.DeleteCase(db.DB, mustUser(c), c.Param("id")); err != nil {
		return fail(c, err, "/client/cases/"+c.Param("id"))
	}
	return done(c, "/client/cases")
}

// AcceptCaseHandler lets a lawyer take an unassigned case
func AcceptCaseHandler(c echo.Context) error {
	result, err := acceptCase(c, c.Param("id"))
	if err != nil {
		return fail(c, err, "/lawyer/cases")
	}
	return done(c, "/lawyer/messages/"+result.Thread.ID)
}

// acceptCase accepts the case and emails the client
func acceptCase(c echo.Context, caseID string) (*services.AcceptCaseResult, error) {
	lawyer := mustUser(c)
	result, err := services.AcceptCase(db.DB, lawyer, caseID)
	if err != nil {
		return nil, err
	}
	sendCaseAcceptedEmail(c, result, lawyer)
	return result, nil
}

func sendCaseAcceptedEmail(c echo.Context, result *services.AcceptCaseResult, lawyer *models.User) {
	client := result.Case.Client
	if client == nil || !client.NotifyEmail {
		return
	}
	cfg := appConfig(c)
	services.SendEmailAsync(cfg, services.BuildCaseAcceptedEmail(cfg.AppURL, client.Email, services.CaseAcceptedEmailData{
		ClientName:  client.Name,
		CaseTitle:   result.Case.Title,
		LawyerName:  lawyer.Name,
		MessagesURL: cfg.AppURL + "/client/messages/" + result.Thread.ID,
	}))
}

// AddCaseUpdateHandler appends a timeline note and returns its fragment
func AddCaseUpdateHandler(c echo.Context) error {
	update, err := services.AddCaseUpdate(db.DB, mustUser(c), c.Param("id"), c.FormValue("message"))
	if err != nil {
		return fail(c, err, area(c)+"/cases/"+c.Param("id"))
	}
	if isHTMX(c) {
		return render(c, http.StatusOK, partials.CaseUpdateView(partials.CaseUpdateItem{Update: *update}))
	}
	return done(c, area(c)+"/cases/"+c.Param("id"))
}

// API

// APIListCasesHandler lists the user's cases, filtered by ?status= and ?q=
func APIListCasesHandler(c echo.Context) error {
	cases, err := services.ListCasesForUser(db.DB, mustUser(c), listFilter(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, cases)
}

func APIGetCaseHandler(c echo.Context) error {
	kase, err := services.GetCaseForUser(db.DB, mustUser(c), c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, kase)
}

func APICreateCaseHandler(c echo.Context) error {
	var form caseForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	kase, err := services.CreateCase(db.DB, mustUser(c), form.input())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, kase)
}

// APIUpdateCaseHandler edits the case, or only its status when the body
// carries just a status.
func APIUpdateCaseHandler(c echo.Context) error {
	var body struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
		Type        string `json:"type" form:"type"`
		Status      string `json:"status" form:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	user := mustUser(c)
	id := c.Param("id")

	var kase *models.Case
	var err error
	if body.Title != "" || body.Description != "" {
		if kase, err = services.UpdateCase(db.DB, user, id, caseForm{body.Title, body.Description, body.Type}.input()); err != nil {
			return apiError(c, err)
		}
	}
	if body.Status != "" {
		if kase, err = services.UpdateCaseStatus(db.DB, user, id, body.Status); err != nil {
			return apiError(c, err)
		}
	}
	if kase == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}
	return c.JSON(http.StatusOK, kase)
}

func APIDeleteCaseHandler(c echo.Context) error {
	if err := services.DeleteCase(db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// APIAcceptCaseHandler accepts a case for the calling lawyer
func APIAcceptCaseHandler(c echo.Context) error {
	result, err := acceptCase(c, c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"case":           result.Case,
		"thread":         result.Thread,
		"thread_created": result.ThreadCreated,
	})
}

// APIListCaseUpdatesHandler lists the timeline of ?case=
func APIListCaseUpdatesHandler(c echo.Context) error {
	caseID := c.QueryParam("case")
	if caseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "case is required")
	}
	updates, err := services.ListCaseUpdates(db.DB, mustUser(c), caseID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, updates)
}

func APICreateCaseUpdateHandler(c echo.Context) error {
	var body struct {
		Case    string `json:"case" form:"case"`
		Message string `json:"message" form:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	update, err := services.AddCaseUpdate(db.DB, mustUser(c), body.Case, body.Message)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, update)
}

func APIDeleteCaseUpdateHandler(c echo.Context) error {
	if err := services.DeleteCaseUpdate(db.DB, mustUser(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
