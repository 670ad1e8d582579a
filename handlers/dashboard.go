package handlers

import (
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"log"

	"github.com/labstack/echo/v4"
)

const dashboardListSize = 5

// DashboardHandler renders the role dashboard. Each panel degrades to empty
// on error so one failing query does not take the page down.
func DashboardHandler(c echo.Context) error {
	user := mustUser(c)
	data := pages.DashboardPage{Shell: shell(c, "Dashboard", "dashboard")}

	var err error
	if data.CaseCounts, err = services.CaseStatusCounts(db.DB, user); err != nil {
		log.Printf("[WARNING] dashboard case counts for %s: %v", user.ID, err)
	}
	if cases, err := services.ListCasesForUser(db.DB, user, services.ListFilter{}); err != nil {
		log.Printf("[WARNING] dashboard cases for %s: %v", user.ID, err)
	} else {
		data.RecentCases = firstN(cases, dashboardListSize)
	}
	if data.Upcoming, err = services.UpcomingAppointments(db.DB, user, dashboardListSize); err != nil {
		log.Printf("[WARNING] dashboard appointments for %s: %v", user.ID, err)
	}
	if notes, err := services.ListNotifications(db.DB, user.ID, false); err != nil {
		log.Printf("[WARNING] dashboard notifications for %s: %v", user.ID, err)
	} else {
		data.Notifications = firstN(notes, dashboardListSize)
	}
	if reqs, err := services.ListCaseRequests(db.DB, user, models.StatusPending); err == nil {
		data.PendingRequests = len(reqs)
	}
	if data.Totals, err = services.SumInvoices(db.DB, user); err != nil {
		log.Printf("[WARNING] dashboard invoice totals for %s: %v", user.ID, err)
	}

	return renderPage(c, "dashboard", data)
}

// AnalyticsHandler renders the lawyer's practice numbers
func AnalyticsHandler(c echo.Context) error {
	user := mustUser(c)
	data := pages.AnalyticsPage{Shell: shell(c, "Analytics", "analytics")}

	var err error
	if data.CaseCounts, err = services.CaseStatusCounts(db.DB, user); err != nil {
		return pageError(c, err)
	}
	if data.Totals, err = services.SumInvoices(db.DB, user); err != nil {
		return pageError(c, err)
	}
	if cases, err := services.ListAssignedCases(db.DB, user.ID, ""); err == nil {
		clients := make(map[string]struct{})
		for _, k := range cases {
			clients[k.ClientID] = struct{}{}
		}
		data.Clients = len(clients)
	}
	if upcoming, err := services.UpcomingAppointments(db.DB, user, 0); err == nil {
		data.Upcoming = len(upcoming)
	}
	return renderPage(c, "analytics", data)
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
