package pages

import (
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/partials"
)

// Shell carries what the layout needs on every page
type Shell struct {
	Title               string
	User                *models.User
	CSRF                string
	Nonce               string
	Active              string
	UnreadNotifications int64
	UnreadMessages      int64
	CSSVersion          string
	JSVersion           string
	Flash               string
}

// Area is the URL prefix of the current user's subtree
func (s Shell) Area() string {
	return partials.Area(s.User)
}

// LoginPage also serves the second step when a code is required
type LoginPage struct {
	Shell
	Email    string
	Error    string
	NeedTOTP bool
}

type RegisterForm struct {
	Username       string
	Email          string
	Phone          string
	Role           string
	Specialization string
	License        string
	Firm           string
}

type RegisterPage struct {
	Shell
	Form  RegisterForm
	Error string
}

type DashboardPage struct {
	Shell
	CaseCounts      map[string]int64
	RecentCases     []models.Case
	Upcoming        []models.Appointment
	Notifications   []models.Notification
	PendingRequests int
	Totals          services.InvoiceTotals
}

type CasesPage struct {
	Shell
	Cases  []models.Case
	Filter services.ListFilter
	Counts map[string]int64
	Error  string
}

type CaseDetailPage struct {
	Shell
	Case      *models.Case
	Updates   []models.CaseUpdate
	Documents []models.Document
	Invoices  []partials.InvoiceRow
	Requests  []models.CaseRequest
	Lawyers   []models.User
	CanAccept bool
	Error     string
}

type CaseRequestsPage struct {
	Shell
	Requests []models.CaseRequest
	Status   string
}

type AppointmentsPage struct {
	Shell
	Rows         []partials.AppointmentRow
	Counterparts []models.User
	Cases        []models.Case
	Filter       services.ListFilter
	Error        string
}

type DocumentsPage struct {
	Shell
	Folders      []models.Folder
	Documents    []models.Document
	ActiveFolder string
	Query        string
	Cases        []models.Case
	Error        string
}

type InvoicesPage struct {
	Shell
	Rows   []partials.InvoiceRow
	Totals services.InvoiceTotals
	Cases  []models.Case
	Filter services.ListFilter
	Error  string
}

type MessagesPage struct {
	Shell
	Threads  partials.ThreadList
	Thread   *models.Thread
	Messages partials.MessageList
	Contacts []models.User
	Error    string
}

type NotificationsPage struct {
	Shell
	Items      []partials.NotificationItem
	UnreadOnly bool
}

type LawyersPage struct {
	Shell
	Lawyers         []models.User
	Specializations []string
	Filter          services.DirectoryFilter
}

type LawyerDetailPage struct {
	Shell
	Lawyer    *models.User
	OpenCases []models.Case
	Error     string
}

type ClientsPage struct {
	Shell
	Clients []models.User
	Query   string
}

type ClientDetailPage struct {
	Shell
	Client *models.User
	Cases  []models.Case
}

type ProfilePage struct {
	Shell
	Profile *models.LawyerProfile
	Error   string
	Saved   bool
}

type AnalyticsPage struct {
	Shell
	CaseCounts map[string]int64
	Totals     services.InvoiceTotals
	Clients    int
	Upcoming   int
}

type ErrorPage struct {
	Shell
	Code    int
	Message string
}
