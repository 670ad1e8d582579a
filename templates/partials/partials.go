package partials

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/components"
	"time"

	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

var set *template.Template

func init() {
	set = template.Must(template.New("partials").Funcs(Funcs()).ParseFS(files, "html/*.html"))
}

// Funcs is the function map shared by partials and pages
func Funcs() template.FuncMap {
	return template.FuncMap{
		"badge": func(status string) (template.HTML, error) {
			return templ.ToGoHTML(context.Background(), components.Badge(status))
		},
		"avatar": func(u *models.User, size string) (template.HTML, error) {
			if u == nil {
				return "", nil
			}
			return templ.ToGoHTML(context.Background(), components.Avatar(u.Name, u.AvatarURL, u.Initials(), size))
		},
		"button": func(label, variant, buttonType string) (template.HTML, error) {
			return templ.ToGoHTML(context.Background(), components.Button(label, variant, buttonType))
		},
		"linkButton": func(label, href, variant string) (template.HTML, error) {
			return templ.ToGoHTML(context.Background(), components.LinkButton(label, href, variant))
		},
		"statusLabel":   components.StatusLabel,
		"json":          components.JSON,
		"cents":         services.FormatCents,
		"date":          formatDate,
		"datetime":      formatDateTime,
		"inputDateTime": formatInputDateTime,
		"fileSize":      formatFileSize,
		"relTime":       func(t time.Time) string { return formatRelativeTime(t, time.Now()) },
		"area":          Area,
		"list":          func(items ...string) []string { return items },
		"rich": func(s string) template.HTML {
			return template.HTML(services.SanitizeRichText(s))
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"dict": func(kv ...interface{}) (map[string]interface{}, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict needs key/value pairs")
			}
			m := make(map[string]interface{}, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				key, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", kv[i])
				}
				m[key] = kv[i+1]
			}
			return m, nil
		},
		"partial": func(name string, data interface{}) (template.HTML, error) {
			var buf bytes.Buffer
			if err := set.ExecuteTemplate(&buf, name, data); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil
		},
	}
}

// Area is the URL prefix of the user's role subtree
func Area(u *models.User) string {
	if u != nil && u.IsLawyer() {
		return "/lawyer"
	}
	return "/client"
}

func component(name string, data interface{}) templ.Component {
	return templ.FromGoHTML(set.Lookup(name), data)
}

// Alert is an inline message box. Kind is error, success or info.
type Alert struct {
	Kind    string
	Message string
}

func AlertBox(kind, message string) templ.Component {
	return component("alert", Alert{Kind: kind, Message: message})
}

// InvoiceRow is one row of the invoice table
type InvoiceRow struct {
	Invoice *models.Invoice
	Viewer  *models.User
	CSRF    string
}

func InvoiceRowView(row InvoiceRow) templ.Component {
	return component("invoice_row", row)
}

// MessageList is the message pane of a thread
type MessageList struct {
	ThreadID string
	Messages []models.Message
	ViewerID string
	Area     string
}

func MessageListView(list MessageList) templ.Component {
	return component("message_list", list)
}

// MessageItem is one chat bubble
type MessageItem struct {
	Message  models.Message
	ViewerID string
}

func MessageItemView(item MessageItem) templ.Component {
	return component("message_item", item)
}

// ThreadList is the sidebar of the messages page
type ThreadList struct {
	Threads  []models.Thread
	ActiveID string
	Area     string
}

func ThreadListView(list ThreadList) templ.Component {
	return component("thread_list", list)
}

// NotificationItem is one entry of the notification list
type NotificationItem struct {
	Notification models.Notification
	Area         string
	CSRF         string
}

func NotificationItemView(item NotificationItem) templ.Component {
	return component("notification_item", item)
}

// CaseUpdateItem is one entry of a case timeline
type CaseUpdateItem struct {
	Update models.CaseUpdate
}

func CaseUpdateView(item CaseUpdateItem) templ.Component {
	return component("case_update", item)
}

// AppointmentRow is one row of the appointment table
type AppointmentRow struct {
	Appointment *models.Appointment
	Viewer      *models.User
	CSRF        string
}

func AppointmentRowView(row AppointmentRow) templ.Component {
	return component("appointment_row", row)
}

// TwoFactorSetup shows the QR code of a pending enrollment
type TwoFactorSetup struct {
	Secret    string
	QRDataURI template.URL
	Area      string
	CSRF      string
}

func TwoFactorSetupView(s TwoFactorSetup) templ.Component {
	return component("twofa_setup", s)
}
