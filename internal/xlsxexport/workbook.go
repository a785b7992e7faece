// Package xlsxexport renders a filing period as an Excel workbook with a
// Summary sheet and an Invoices sheet.
package xlsxexport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/csvexport"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/invoice"
	"github.com/jedlsf/buwis-friend/internal/money"
)

const (
	SummarySheet  = "Summary"
	InvoicesSheet = "Invoices"

	// Gross Sales through Amount Due in csvexport.Columns.
	firstMoneyCol = 7
	lastMoneyCol  = 18

	// "#,##0.00"
	numFmtMoney = 4
)

type styles struct {
	header int
	money  int
}

// Write renders sum, its invoices and the period deadlines to w.
func Write(w io.Writer, sum filing.Summary, invoices []*invoice.Invoice, deadlines calendar.Deadlines) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(InvoicesSheet); err != nil {
		return fmt.Errorf("creating invoices sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := writeSummary(f, st, sum, deadlines); err != nil {
		return fmt.Errorf("writing summary sheet: %w", err)
	}
	if err := writeInvoices(f, st, invoices); err != nil {
		return fmt.Errorf("writing invoices sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return styles{}, fmt.Errorf("creating header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return styles{}, fmt.Errorf("creating money style: %w", err)
	}
	return styles{header: header, money: moneyStyle}, nil
}

type summaryRow struct {
	label string
	value any
}

func amount(m money.Money) float64 {
	return m.Amount().Round(2).InexactFloat64()
}

func writeSummary(f *excelize.File, st styles, sum filing.Summary, dl calendar.Deadlines) error {
	rows := []summaryRow{
		{"Taxpayer", sum.Taxpayer.Name},
		{"TIN", sum.Taxpayer.TIN},
		{"User ID", sum.UserID},
		{"Period", sum.Period.String()},
		{"Currency", sum.Currency},
		{"Income Tax Regime", string(sum.Regime)},
		{"Invoice Count", sum.InvoiceCount},
		{"Gross Sales", amount(sum.GrossSales)},
		{"SC/PWD Discount", amount(sum.Discounts.SeniorCitizenPWD)},
		{"Other Discount", amount(sum.Discounts.Other)},
		{"Total Discount", amount(sum.Discounts.Total)},
		{"Net Sales", amount(sum.NetSales)},
		{"VATable Sales", amount(sum.VAT.VATableSales)},
		{"VAT-Exempt Sales", amount(sum.VAT.ExemptSales)},
		{"Zero-Rated Sales", amount(sum.VAT.ZeroRatedSales)},
		{"VAT", amount(sum.VAT.Total)},
		{"Percentage Tax Sales", amount(sum.PercentageTax.Sales)},
		{"Percentage Tax", amount(sum.PercentageTax.Total)},
		{"Withholding Tax", amount(sum.WithholdingTax)},
		{"Net Receivable", amount(sum.NetReceivable)},
		{"Net Income Before Tax", amount(sum.NetIncomeBeforeTax)},
		{"Income Tax Due", amount(sum.IncomeTaxDue)},
		{"Net Income After Tax", amount(sum.NetIncomeAfterTax)},
		{"Percentage Tax Deadline", dl.PercentageTax},
		{"VAT Deadline", dl.VAT},
		{"Income Tax Deadline", dl.IncomeTax},
		{"Annual Income Tax Deadline", dl.AnnualIncomeTax},
		{"Monthly Withholding Deadlines", strings.Join(dl.MonthlyWithholding, ", ")},
		{"Annual Withholding Deadline", dl.AnnualWithholding},
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &[]any{"Item", "Value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", st.header); err != nil {
		return err
	}
	for i, r := range rows {
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(SummarySheet, cell, &[]any{r.label, r.value}); err != nil {
			return err
		}
		if _, ok := r.value.(float64); ok {
			valueCell := "B" + strconv.Itoa(i+2)
			if err := f.SetCellStyle(SummarySheet, valueCell, valueCell, st.money); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 32); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "B", "B", 24)
}

func writeInvoices(f *excelize.File, st styles, invoices []*invoice.Invoice) error {
	header := make([]any, len(csvexport.Columns))
	for i, c := range csvexport.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(InvoicesSheet, "A1", &header); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(InvoicesSheet, "A1", lastHeader, st.header); err != nil {
		return err
	}

	for i, inv := range invoices {
		rowNum := i + 2
		cells := csvexport.InvoiceRow(inv)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
			if j >= firstMoneyCol && j <= lastMoneyCol {
				if d, err := decimal.NewFromString(c); err == nil {
					row[j] = d.InexactFloat64()
				}
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(InvoicesSheet, start, &row); err != nil {
			return err
		}
	}

	if len(invoices) > 0 {
		from, _ := excelize.CoordinatesToCellName(firstMoneyCol+1, 2)
		to, _ := excelize.CoordinatesToCellName(lastMoneyCol+1, len(invoices)+1)
		if err := f.SetCellStyle(InvoicesSheet, from, to, st.money); err != nil {
			return err
		}
	}
	return f.SetColWidth(InvoicesSheet, "A", "U", 16)
}
