package payroll

import (
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Aggregate sums payslip lines by category into the payslip totals.
func Aggregate(lines []payroll.ResultLine) payroll.Totals {
	t := payroll.Totals{
		AllowanceTotal: decimal.Zero,
		DeductionTotal: decimal.Zero,
		OtherPayments:  decimal.Zero,
		AmountSubtotal: decimal.Zero,
		Discount:       decimal.Zero,
		Retentions:     decimal.Zero,
	}
	totalAllowances := decimal.Zero
	totalDeductions := decimal.Zero

	for _, l := range lines {
		switch l.CategoryCode {
		case payroll.CategoryAllowance:
			t.AllowanceTotal = t.AllowanceTotal.Add(l.Total)
		case payroll.CategoryOtherPayment:
			t.OtherPayments = t.OtherPayments.Add(l.Total)
		case payroll.CategoryDeduction:
			t.DeductionTotal = t.DeductionTotal.Add(l.Total)
			if l.Code == payroll.RuleCodeISR {
				t.Retentions = t.Retentions.Add(l.Total)
			} else {
				t.Discount = t.Discount.Add(l.Total)
			}
		case payroll.CategoryNet:
			switch l.Code {
			case payroll.RuleCodeTotalAllowances:
				totalAllowances = totalAllowances.Add(l.Total)
			case payroll.RuleCodeTotalDeductions:
				totalDeductions = totalDeductions.Add(l.Total)
			}
		}
	}

	t.AmountSubtotal = totalAllowances
	t.AmountTotal = totalAllowances.Sub(totalDeductions)
	return t
}

// maxAntiquityWeeks is the largest tenure still reported in weeks.
const maxAntiquityWeeks = 999

// EncodeAntiquity renders tenure from the first contract date to the end
// of the period as an ISO 8601 duration: "P<weeks>W" up to 999 weeks,
// "P<y>Y<m>M<d>D" beyond. Years are omitted when zero; months and days
// are always present.
func EncodeAntiquity(firstContract, dateTo time.Time) string {
	days := contract.DaysBetween(firstContract, dateTo)
	var b strings.Builder
	b.WriteString("P")

	if floorDiv(days, 7) <= maxAntiquityWeeks {
		b.WriteString(strconv.Itoa(floorDiv(days, 7)))
		b.WriteString("W")
		return b.String()
	}

	years, months, rem := calendarDelta(firstContract, dateTo)
	if years > 0 {
		b.WriteString(strconv.Itoa(years))
		b.WriteString("Y")
	}
	if months > 0 {
		b.WriteString(strconv.Itoa(months))
		b.WriteString("M")
	} else {
		b.WriteString("0M")
	}
	if rem > 0 {
		b.WriteString(strconv.Itoa(rem))
		b.WriteString("D")
	} else {
		b.WriteString("0D")
	}
	return b.String()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// calendarDelta splits from..to (to after from) into whole years, months
// and remaining days. Adding months clips to the last day of the target
// month.
func calendarDelta(from, to time.Time) (years, months, days int) {
	from = dateOnly(from)
	to = dateOnly(to)

	total := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	anchor := addMonths(from, total)
	for anchor.After(to) {
		total--
		anchor = addMonths(from, total)
	}

	days = contract.DaysBetween(anchor, to)
	return total / 12, total % 12, days
}

func addMonths(t time.Time, months int) time.Time {
	y, m := t.Year(), int(t.Month())-1+months
	y += floorDiv(m, 12)
	m = m - floorDiv(m, 12)*12 + 1
	day := t.Day()
	if last := daysIn(y, time.Month(m)); day > last {
		day = last
	}
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
