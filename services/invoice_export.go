package services

import (
	"fmt"
	"io"
	"lawconnect/models"

	"github.com/xuri/excelize/v2"
)

const invoiceSheet = "Invoices"

var invoiceExportHeaders = []string{"Number", "Case", "Client", "Lawyer", "Description", "Amount", "Status", "Issued", "Due", "Paid"}

// ExportInvoicesXLSX writes the invoices as a spreadsheet. Amounts are
// written as numbers in dollars with a currency format.
func ExportInvoicesXLSX(w io.Writer, invoices []models.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	// 7 = "$#,##0.00_);($#,##0.00)"
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 7})
	if err != nil {
		return err
	}

	for i, h := range invoiceExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(invoiceSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(invoiceExportHeaders))
	f.SetCellStyle(invoiceSheet, "A1", lastCol+"1", headerStyle)

	var total int64
	for r, inv := range invoices {
		row := r + 2
		values := []interface{}{
			inv.Number(),
			"",
			"",
			"",
			inv.Description,
			float64(inv.Amount) / 100,
			inv.Status,
			inv.CreatedAt.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			"",
		}
		if inv.Case != nil {
			values[1] = inv.Case.Title
		}
		if inv.Client != nil {
			values[2] = inv.Client.Name
		}
		if inv.Lawyer != nil {
			values[3] = inv.Lawyer.Name
		}
		if inv.PaidAt != nil {
			values[9] = inv.PaidAt.Format("2006-01-02")
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			f.SetCellValue(invoiceSheet, cell, v)
		}
		amountCell, _ := excelize.CoordinatesToCellName(6, row)
		f.SetCellStyle(invoiceSheet, amountCell, amountCell, moneyStyle)
		total += inv.Amount
	}

	totalRow := len(invoices) + 2
	labelCell, _ := excelize.CoordinatesToCellName(5, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(6, totalRow)
	f.SetCellValue(invoiceSheet, labelCell, "Total")
	f.SetCellValue(invoiceSheet, totalCell, float64(total)/100)
	f.SetCellStyle(invoiceSheet, labelCell, labelCell, headerStyle)
	f.SetCellStyle(invoiceSheet, totalCell, totalCell, moneyStyle)

	f.SetColWidth(invoiceSheet, "A", "A", 14)
	f.SetColWidth(invoiceSheet, "B", "E", 28)
	f.SetColWidth(invoiceSheet, "F", "J", 14)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
