package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"lawconnect/config"
	"log"
	"strings"
	texttemplate "text/template"

	"github.com/resend/resend-go/v2"
)

//go:embed emails/*.html emails/*.txt
var emailFS embed.FS

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// renderEmail executes emails/<name>.html inside the shared layout and
// emails/<name>.txt as plain text.
func renderEmail(name string, data interface{}) (string, string, error) {
	htmlTmpl, err := template.ParseFS(emailFS, "emails/layout.html", "emails/"+name+".html")
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var htmlBuf bytes.Buffer
	if err := htmlTmpl.ExecuteTemplate(&htmlBuf, "layout", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	textTmpl, err := texttemplate.ParseFS(emailFS, "emails/"+name+".txt")
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var textBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}

func buildEmail(name, subject, to string, data interface{}) *Email {
	htmlBody, textBody, err := renderEmail(name, data)
	if err != nil {
		log.Printf("Error loading %s email template: %v", name, err)
	}
	return &Email{
		To:       []string{to},
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 60)
	log.Printf("\n%s\nEMAIL (test mode, not sent)\nTo: %v\nSubject: %s\n\n%s\n%s",
		separator, email.To, email.Subject, email.TextBody, separator)
}

// SendEmailAsync sends an email in a goroutine so handlers never wait on Resend
func SendEmailAsync(cfg *config.Config, email *Email) {
	if cfg == nil || email == nil {
		return
	}
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func() {
		if err := SendEmail(cfg, emailCopy); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}()
}

// WelcomeEmailData contains data for the welcome email template
type WelcomeEmailData struct {
	UserName     string
	Role         string
	DashboardURL string
}

// BuildWelcomeEmail creates a welcome email for new users
func BuildWelcomeEmail(appURL, userEmail, userName, role, dashboardPath string) *Email {
	return buildEmail("welcome", "Welcome to LawConnect", userEmail, WelcomeEmailData{
		UserName:     userName,
		Role:         role,
		DashboardURL: strings.TrimSuffix(appURL, "/") + dashboardPath,
	})
}

// CaseAcceptedEmailData contains data for the case accepted email template
type CaseAcceptedEmailData struct {
	ClientName  string
	CaseTitle   string
	LawyerName  string
	MessagesURL string
}

// BuildCaseAcceptedEmail tells a client a lawyer took their case
func BuildCaseAcceptedEmail(appURL, clientEmail string, data CaseAcceptedEmailData) *Email {
	if data.MessagesURL == "" {
		data.MessagesURL = strings.TrimSuffix(appURL, "/") + "/client/messages"
	}
	return buildEmail("case_accepted", fmt.Sprintf("Your case '%s' was accepted", data.CaseTitle), clientEmail, data)
}

// InvoiceEmailData contains data for the invoice email template
type InvoiceEmailData struct {
	ClientName  string
	LawyerName  string
	Number      string
	Amount      string
	Status      string
	DueDate     string
	InvoicesURL string
}

// BuildInvoiceCreatedEmail notifies a client of a new invoice
func BuildInvoiceCreatedEmail(appURL, clientEmail string, data InvoiceEmailData) *Email {
	if data.InvoicesURL == "" {
		data.InvoicesURL = strings.TrimSuffix(appURL, "/") + "/client/invoices"
	}
	return buildEmail("invoice_created", fmt.Sprintf("New invoice %s", data.Number), clientEmail, data)
}

// AppointmentReminderEmailData contains data for the reminder email
type AppointmentReminderEmailData struct {
	Name            string
	Title           string
	With            string
	Date            string
	Time            string
	Duration        int
	AppointmentsURL string
}

// BuildAppointmentReminderEmail creates a reminder email for upcoming appointments
func BuildAppointmentReminderEmail(to string, data AppointmentReminderEmailData) *Email {
	return buildEmail("appointment_reminder", fmt.Sprintf("Reminder: %s at %s", data.Title, data.Time), to, data)
}
