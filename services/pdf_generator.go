package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"lawconnect/models"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// getChromePath returns the Chrome executable path from environment variable
func getChromePath() string {
	return os.Getenv("CHROME_PATH")
}

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	PageOrientation string // portrait, landscape
	PageSize        string // letter, legal, A4
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
	Timeout         time.Duration
}

// DefaultPDFOptions returns letter portrait with half inch margins
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "letter",
		MarginTop:       36,
		MarginBottom:    36,
		MarginLeft:      36,
		MarginRight:     36,
		Timeout:         30 * time.Second,
	}
}

// paperSize returns width and height in inches
func (o PDFOptions) paperSize() (float64, float64) {
	var w, h float64
	switch o.PageSize {
	case "legal":
		w, h = 8.5, 14.0
	case "A4":
		w, h = 8.27, 11.69
	default: // letter
		w, h = 8.5, 11.0
	}
	if o.PageOrientation == "landscape" {
		w, h = h, w
	}
	return w, h
}

// GeneratePDF renders HTML content to PDF using headless Chrome
func GeneratePDF(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	// headless-shell in Docker
	if chromePath := getChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	paperWidth, paperHeight := options.paperSize()
	inches := func(points int) float64 { return float64(points) / 72.0 }

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(inches(options.MarginTop)).
				WithMarginBottom(inches(options.MarginBottom)).
				WithMarginLeft(inches(options.MarginLeft)).
				WithMarginRight(inches(options.MarginRight)).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdfBuf, nil
}

var invoicePDFTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Number}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; color: #1f2937; }
  h1 { font-size: 20pt; margin: 0 0 4pt 0; }
  .muted { color: #6b7280; }
  .header { display: flex; justify-content: space-between; margin-bottom: 24pt; }
  .parties { display: flex; justify-content: space-between; margin-bottom: 24pt; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 8pt; border-bottom: 1px solid #e5e7eb; }
  td.amount, th.amount { text-align: right; }
  .total { font-size: 14pt; font-weight: bold; text-align: right; margin-top: 16pt; }
  .status { display: inline-block; padding: 2pt 8pt; border-radius: 8pt; font-size: 9pt; text-transform: uppercase; }
  .status-paid { background: #d1fae5; color: #065f46; }
  .status-pending { background: #fef3c7; color: #92400e; }
  .status-overdue { background: #fee2e2; color: #991b1b; }
</style>
</head>
<body>
  <div class="header">
    <div>
      <h1>Invoice {{.Number}}</h1>
      <span class="status status-{{.Status}}">{{.Status}}</span>
    </div>
    <div class="muted">
      <div>Issued {{.Issued}}</div>
      <div>Due {{.Due}}</div>
      {{if .Paid}}<div>Paid {{.Paid}}</div>{{end}}
    </div>
  </div>
  <div class="parties">
    <div>
      <div class="muted">From</div>
      <strong>{{.LawyerName}}</strong>
      {{if .Firm}}<div>{{.Firm}}</div>{{end}}
      <div>{{.LawyerEmail}}</div>
    </div>
    <div>
      <div class="muted">Bill to</div>
      <strong>{{.ClientName}}</strong>
      <div>{{.ClientEmail}}</div>
    </div>
  </div>
  <table>
    <thead><tr><th>Description</th><th>Case</th><th class="amount">Amount</th></tr></thead>
    <tbody>
      <tr><td>{{.Description}}</td><td>{{.CaseTitle}}</td><td class="amount">{{.Amount}}</td></tr>
    </tbody>
  </table>
  <div class="total">Total {{.Amount}}</div>
</body>
</html>`))

type invoicePDFData struct {
	Number      string
	Status      string
	Issued      string
	Due         string
	Paid        string
	LawyerName  string
	LawyerEmail string
	Firm        string
	ClientName  string
	ClientEmail string
	Description string
	CaseTitle   string
	Amount      string
}

// RenderInvoiceHTML renders the printable invoice page. The invoice needs its
// Case, Client and Lawyer relations loaded.
func RenderInvoiceHTML(inv *models.Invoice) (string, error) {
	data := invoicePDFData{
		Number:      inv.Number(),
		Status:      inv.Status,
		Issued:      inv.CreatedAt.Format("January 2, 2006"),
		Due:         inv.DueDate.Format("January 2, 2006"),
		Description: inv.Description,
		Amount:      FormatCents(inv.Amount),
	}
	if data.Description == "" {
		data.Description = "Legal services"
	}
	if inv.PaidAt != nil {
		data.Paid = inv.PaidAt.Format("January 2, 2006")
	}
	if inv.Case != nil {
		data.CaseTitle = inv.Case.Title
	}
	if inv.Lawyer != nil {
		data.LawyerName = inv.Lawyer.Name
		data.LawyerEmail = inv.Lawyer.Email
		if inv.Lawyer.LawyerProfile != nil {
			data.Firm = inv.Lawyer.LawyerProfile.Firm
		}
	}
	if inv.Client != nil {
		data.ClientName = inv.Client.Name
		data.ClientEmail = inv.Client.Email
	}

	var buf bytes.Buffer
	if err := invoicePDFTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.String(), nil
}

// GenerateInvoicePDF prints an invoice through headless Chrome
func GenerateInvoicePDF(ctx context.Context, inv *models.Invoice) ([]byte, error) {
	html, err := RenderInvoiceHTML(inv)
	if err != nil {
		return nil, err
	}
	return GeneratePDF(ctx, html, DefaultPDFOptions())
}
