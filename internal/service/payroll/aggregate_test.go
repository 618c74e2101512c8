package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	lines := []payroll.ResultLine{
		{Code: "P001", CategoryCode: payroll.CategoryAllowance, Total: dec("3500")},
		{Code: "P010", CategoryCode: payroll.CategoryAllowance, Total: dec("250")},
		{Code: "O002", CategoryCode: payroll.CategoryOtherPayment, Total: dec("40")},
		{Code: "D045", CategoryCode: payroll.CategoryDeduction, Total: dec("291.20")},
		{Code: "D001", CategoryCode: payroll.CategoryDeduction, Total: dec("93.58")},
		{Code: "C001", CategoryCode: payroll.CategoryCompany, Total: dec("718.50")},
		{Code: "TALW", CategoryCode: payroll.CategoryNet, Total: dec("3790")},
		{Code: "TDED", CategoryCode: payroll.CategoryNet, Total: dec("384.78")},
	}

	totals := Aggregate(lines)

	assertDec(t, "3750", totals.AllowanceTotal)
	assertDec(t, "40", totals.OtherPayments)
	assertDec(t, "384.78", totals.DeductionTotal)
	assertDec(t, "291.20", totals.Retentions)
	assertDec(t, "93.58", totals.Discount)
	assertDec(t, "3790", totals.AmountSubtotal)
	// amount_total is TALW − TDED, not a sum over categories.
	assertDec(t, "3405.22", totals.AmountTotal)
}

func TestAggregate_Empty(t *testing.T) {
	totals := Aggregate(nil)
	assert.True(t, totals.AmountTotal.IsZero())
	assert.True(t, totals.AllowanceTotal.IsZero())
}

func TestEncodeAntiquity(t *testing.T) {
	start := date(2000, time.January, 1)

	tests := []struct {
		name string
		to   time.Time
		want string
	}{
		{"same day", start, "P0W"},
		{"six days", start.AddDate(0, 0, 6), "P0W"},
		{"one week", start.AddDate(0, 0, 7), "P1W"},
		{"999 weeks", start.AddDate(0, 0, 6993), "P999W"},
		{"999 weeks and six days", start.AddDate(0, 0, 6999), "P999W"},
		{"1000 weeks", start.AddDate(0, 0, 7000), "P19Y2M1D"},
		{"whole years", date(2025, time.January, 1), "P25Y0M0D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeAntiquity(start, tt.to))
		})
	}
}

func TestEncodeAntiquity_MonthClipping(t *testing.T) {
	// Jan 31 plus one month clips to Feb 29 in a leap year.
	start := date(1990, time.January, 31)
	assert.Equal(t, "P34Y1M0D", EncodeAntiquity(start, date(2024, time.February, 29)))
}
