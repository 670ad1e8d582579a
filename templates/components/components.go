package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Badge colours keyed by status. Unknown statuses render neutral.
var badgeVariants = map[string]string{
	"open":      "info",
	"in_review": "warning",
	"closed":    "neutral",
	"pending":   "warning",
	"confirmed": "info",
	"completed": "success",
	"cancelled": "neutral",
	"accepted":  "success",
	"rejected":  "danger",
	"paid":      "success",
	"overdue":   "danger",
}

// StatusLabel turns a status value into display text
func StatusLabel(status string) string {
	s := strings.ReplaceAll(status, "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Badge renders a status pill
func Badge(status string) templ.Component {
	variant, ok := badgeVariants[status]
	if !ok {
		variant = "neutral"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span class="badge badge-%s" data-status="%s">%s</span>`,
			variant, templ.EscapeString(status), templ.EscapeString(StatusLabel(status)))
		return err
	})
}

// Button renders a form button. variant is primary, secondary or danger.
func Button(label, variant, buttonType string) templ.Component {
	if buttonType == "" {
		buttonType = "button"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<button type="%s" class="btn btn-%s">%s</button>`,
			templ.EscapeString(buttonType), templ.EscapeString(variant), templ.EscapeString(label))
		return err
	})
}

// LinkButton renders an anchor styled as a button
func LinkButton(label, href, variant string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<a href="%s" class="btn btn-%s">%s</a>`,
			templ.EscapeString(string(templ.URL(href))), templ.EscapeString(variant), templ.EscapeString(label))
		return err
	})
}

// Avatar shows the uploaded picture or the initials of name
func Avatar(name, url, initials, size string) templ.Component {
	if size == "" {
		size = "md"
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if url != "" {
			_, err := fmt.Fprintf(w, `<img class="avatar avatar-%s" src="%s" alt="%s">`,
				templ.EscapeString(size), templ.EscapeString(string(templ.URL(url))), templ.EscapeString(name))
			return err
		}
		_, err := fmt.Fprintf(w, `<span class="avatar avatar-%s" aria-label="%s">%s</span>`,
			templ.EscapeString(size), templ.EscapeString(name), templ.EscapeString(initials))
		return err
	})
}

// Card wraps body in a titled panel
func Card(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="card">`); err != nil {
			return err
		}
		if title != "" {
			if _, err := fmt.Fprintf(w, `<h2 class="card-title">%s</h2>`, templ.EscapeString(title)); err != nil {
				return err
			}
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}
