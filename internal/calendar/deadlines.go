package calendar

import "time"

func date(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, Manila).Format(dateLayout)
}

// PercentageTaxDeadline is 25 days after the close of the quarter.
func PercentageTaxDeadline(quarter, year int) (string, error) {
	_, end, err := QuarterRange(quarter, year)
	if err != nil {
		return "", err
	}
	return end.AddDate(0, 0, 25).Format(dateLayout), nil
}

// VATDeadline shares the quarterly percentage tax deadline.
func VATDeadline(quarter, year int) (string, error) {
	return PercentageTaxDeadline(quarter, year)
}

// QuarterlyIncomeTaxDeadline returns the quarterly return due date. The
// fourth quarter is covered by the annual return.
func QuarterlyIncomeTaxDeadline(quarter, year int) (string, error) {
	if err := validateYear(year); err != nil {
		return "", err
	}
	if err := validateQuarter(quarter); err != nil {
		return "", err
	}
	switch quarter {
	case 1:
		return date(year, time.May, 15), nil
	case 2:
		return date(year, time.August, 15), nil
	case 3:
		return date(year, time.November, 15), nil
	default:
		return AnnualIncomeTaxDeadline(year)
	}
}

// AnnualIncomeTaxDeadline is April 15 of the following year.
func AnnualIncomeTaxDeadline(year int) (string, error) {
	if err := validateYear(year); err != nil {
		return "", err
	}
	return date(year+1, time.April, 15), nil
}

// MonthlyWithholdingDeadline is the 10th of the following month, except
// December which is due January 15.
func MonthlyWithholdingDeadline(month, year int) (string, error) {
	if err := validateYear(year); err != nil {
		return "", err
	}
	if err := validateMonth(month); err != nil {
		return "", err
	}
	if month == 12 {
		return date(year+1, time.January, 15), nil
	}
	return date(year, time.Month(month+1), 10), nil
}

// AnnualWithholdingDeadline is January 31 of the following year.
func AnnualWithholdingDeadline(year int) (string, error) {
	if err := validateYear(year); err != nil {
		return "", err
	}
	return date(year+1, time.January, 31), nil
}

// Deadlines collects every return due for a filing period.
type Deadlines struct {
	Period             Period   `json:"period"`
	PercentageTax      string   `json:"percentage_tax"`
	VAT                string   `json:"vat"`
	IncomeTax          string   `json:"income_tax"`
	AnnualIncomeTax    string   `json:"annual_income_tax"`
	MonthlyWithholding []string `json:"monthly_withholding"`
	AnnualWithholding  string   `json:"annual_withholding"`
}

// DeadlinesFor returns all deadlines for p.
func DeadlinesFor(p Period) (Deadlines, error) {
	if err := p.Validate(); err != nil {
		return Deadlines{}, err
	}
	d := Deadlines{Period: p}
	d.PercentageTax, _ = PercentageTaxDeadline(p.Quarter, p.Year)
	d.VAT, _ = VATDeadline(p.Quarter, p.Year)
	d.IncomeTax, _ = QuarterlyIncomeTaxDeadline(p.Quarter, p.Year)
	d.AnnualIncomeTax, _ = AnnualIncomeTaxDeadline(p.Year)
	d.AnnualWithholding, _ = AnnualWithholdingDeadline(p.Year)

	first := (p.Quarter-1)*3 + 1
	d.MonthlyWithholding = make([]string, 0, 3)
	for m := first; m < first+3; m++ {
		dl, _ := MonthlyWithholdingDeadline(m, p.Year)
		d.MonthlyWithholding = append(d.MonthlyWithholding, dl)
	}
	return d, nil
}
