package handlers

import (
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// LawyersHandler renders the lawyer directory, searchable by name and specialization
func LawyersHandler(c echo.Context) error {
	filter := services.DirectoryFilter{Query: c.QueryParam("q"), Specialization: c.QueryParam("specialization")}
	lawyers, err := services.ListLawyers(db.DB, filter)
	if err != nil {
		log.Printf("[WARNING] lawyer directory: %v", err)
	}
	specs, _ := services.ListSpecializations(db.DB)
	return renderPage(c, "lawyers", pages.LawyersPage{
		Shell:           shell(c, "Find a lawyer", "lawyers"),
		Lawyers:         lawyers,
		Specializations: specs,
		Filter:          filter,
	})
}

// LawyerDetailHandler shows one lawyer and lets the client send a case
func LawyerDetailHandler(c echo.Context) error {
	lawyer, err := services.GetLawyer(db.DB, c.Param("id"))
	if err != nil {
		return pageError(c, err)
	}
	data := pages.LawyerDetailPage{
		Shell:  shell(c, lawyer.Name, "lawyers"),
		Lawyer: lawyer,
		Error:  c.QueryParam("error"),
	}
	if cases, err := services.ListCasesForUser(db.DB, mustUser(c), services.ListFilter{Status: models.CaseStatusOpen}); err == nil {
		for _, k := range cases {
			if k.IsAcceptable() {
				data.OpenCases = append(data.OpenCases, k)
			}
		}
	}
	return renderPage(c, "lawyer_detail", data)
}

// ClientsHandler lists clients for lawyers
func ClientsHandler(c echo.Context) error {
	q := c.QueryParam("q")
	clients, err := services.ListClients(db.DB, q)
	if err != nil {
		log.Printf("[WARNING] client directory: %v", err)
	}
	return renderPage(c, "clients", pages.ClientsPage{
		Shell:   shell(c, "Clients", "clients"),
		Clients: clients,
		Query:   q,
	})
}

// ClientDetailHandler shows a client and the cases they share with the lawyer
func ClientDetailHandler(c echo.Context) error {
	client, err := services.GetClient(db.DB, c.Param("id"))
	if err != nil {
		return pageError(c, err)
	}
	cases, err := services.ListAssignedCases(db.DB, mustUser(c).ID, client.ID)
	if err != nil {
		log.Printf("[WARNING] cases of client %s: %v", client.ID, err)
	}
	return renderPage(c, "client_detail", pages.ClientDetailPage{
		Shell:  shell(c, client.Name, "clients"),
		Client: client,
		Cases:  cases,
	})
}

// API

func APIListLawyersHandler(c echo.Context) error {
	lawyers, err := services.ListLawyers(db.DB, services.DirectoryFilter{
		Query:          c.QueryParam("q"),
		Specialization: c.QueryParam("specialization"),
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, lawyers)
}

func APIGetLawyerHandler(c echo.Context) error {
	lawyer, err := services.GetLawyer(db.DB, c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, lawyer)
}

func APIListClientsHandler(c echo.Context) error {
	clients, err := services.ListClients(db.DB, c.QueryParam("q"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, clients)
}

func APIGetClientHandler(c echo.Context) error {
	client, err := services.GetClient(db.DB, c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, client)
}
