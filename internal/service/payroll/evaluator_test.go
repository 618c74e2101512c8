package payroll

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_WeeklyStructure(t *testing.T) {
	evaluator := NewRuleEvaluator(testSettings())

	lines, err := evaluator.Evaluate(testSlip(), weeklyStructure())
	require.NoError(t, err)

	// BASIC, GROSS and NET seed the context but never become lines.
	assert.Equal(t, []string{"P001", "D045", "D001", "TALW", "TDED"}, lineCodes(lines))

	p001, _ := lineByCode(lines, "P001")
	assertDec(t, "3500", p001.Total)
	assertDec(t, "1", p001.Quantity)
	assertDec(t, "100", p001.Rate)
	assert.Equal(t, payroll.RuleTypeAllowance, p001.RuleType)
	assertDec(t, "3500", p001.TaxableAmount)
	assertDec(t, "0", p001.ExemptAmount)

	isr, _ := lineByCode(lines, "D045")
	assertDec(t, "291.2", isr.Total)
	assert.Equal(t, payroll.RuleTypeDeduction, isr.RuleType)

	imss, _ := lineByCode(lines, "D001")
	assertDec(t, "93.58", imss.Total)

	talw, _ := lineByCode(lines, "TALW")
	assertDec(t, "3500", talw.Total)
	assert.Equal(t, payroll.RuleTypeTotal, talw.RuleType)

	tded, _ := lineByCode(lines, "TDED")
	assertDec(t, "384.78", tded.Total)
}

func TestEvaluate_Idempotent(t *testing.T) {
	evaluator := NewRuleEvaluator(testSettings())
	slip := testSlip()

	first, err := evaluator.Evaluate(slip, weeklyStructure())
	require.NoError(t, err)
	second, err := evaluator.Evaluate(slip, weeklyStructure())
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Code, second[i].Code)
		assert.True(t, first[i].Total.Equal(second[i].Total), "line %s", first[i].Code)
		assert.True(t, first[i].Amount.Equal(second[i].Amount), "line %s", first[i].Code)
	}
}

func TestEvaluate_MissingContract(t *testing.T) {
	slip := testSlip()
	slip.Contract = nil

	_, err := NewRuleEvaluator(testSettings()).Evaluate(slip, weeklyStructure())

	var cfgErr *payroll.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "contract_id", cfgErr.Field)
	assert.ErrorIs(t, err, payroll.ErrConfiguration)
}

func TestEvaluate_DuplicateCodeOverwritesInPlace(t *testing.T) {
	structure := payroll.Structure{Rules: []payroll.SalaryRule{
		fixRule(1, "P001", payroll.CategoryAllowance, "100"),
		fixRule(2, "D001", payroll.CategoryDeduction, "5"),
		fixRule(3, "P001", payroll.CategoryAllowance, "250"),
		codeRule(4, "CHK", payroll.CategoryOtherPayment, "categories('ALW')"),
	}}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), structure)
	require.NoError(t, err)

	assert.Equal(t, []string{"P001", "D001", "CHK"}, lineCodes(lines))
	assertDec(t, "250", lines[0].Total)
	// The category only carries the difference of the second P001.
	assertDec(t, "250", lines[2].Total)
}

func TestEvaluate_SequenceOrder(t *testing.T) {
	structure := payroll.Structure{Rules: []payroll.SalaryRule{
		codeRule(20, "B", payroll.CategoryAllowance, "A * 2"),
		fixRule(10, "A", payroll.CategoryAllowance, "40"),
	}}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), structure)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, lineCodes(lines))
	assertDec(t, "80", lines[1].Total)
}

func TestEvaluate_Conditions(t *testing.T) {
	expr := fixRule(1, "HIGH", payroll.CategoryAllowance, "10")
	expr.ConditionSelect = payroll.ConditionExpression
	expr.ConditionExpr = "wage > 1000"

	inRange := fixRule(2, "MID", payroll.CategoryAllowance, "20")
	inRange.ConditionSelect = payroll.ConditionRange
	inRange.ConditionRange = "wage"
	inRange.ConditionRangeMin = dec("100")
	inRange.ConditionRangeMax = dec("600")

	outOfRange := fixRule(3, "LOW", payroll.CategoryAllowance, "30")
	outOfRange.ConditionSelect = payroll.ConditionRange
	outOfRange.ConditionRange = "wage"
	outOfRange.ConditionRangeMin = dec("0")
	outOfRange.ConditionRangeMax = dec("99")

	structure := payroll.Structure{Rules: []payroll.SalaryRule{expr, inRange, outOfRange}}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), structure)
	require.NoError(t, err)
	assert.Equal(t, []string{"MID"}, lineCodes(lines))
}

func TestEvaluate_AmountModes(t *testing.T) {
	percentage := payroll.SalaryRule{
		Code:                 "PCT",
		Sequence:             1,
		CategoryCode:         payroll.CategoryAllowance,
		AmountSelect:         payroll.AmountPercentage,
		AmountPercentage:     dec("10"),
		AmountPercentageBase: "wage",
	}
	quantity := fixRule(2, "QTY", payroll.CategoryAllowance, "100")
	quantity.QuantityExpr = "worked_days('WORK100')"
	rate := codeRule(3, "RATE", payroll.CategoryAllowance, "wage")
	rate.RateExpr = "50"

	structure := payroll.Structure{Rules: []payroll.SalaryRule{percentage, quantity, rate}}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), structure)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assertDec(t, "500", lines[0].Amount)
	assertDec(t, "10", lines[0].Rate)
	assertDec(t, "50", lines[0].Total)

	assertDec(t, "7", lines[1].Quantity)
	assertDec(t, "700", lines[1].Total)

	assertDec(t, "250", lines[2].Total)
}

func TestEvaluate_Exemption(t *testing.T) {
	tests := []struct {
		name        string
		exempt      string
		taxable     string
		wantExempt  string
		wantTaxable string
	}{
		{"partially exempt", "100", "", "100", "200"},
		{"exempt capped at total", "500", "", "300", "0"},
		{"explicit taxable part", "100", "42", "100", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := fixRule(1, "P002", payroll.CategoryAllowance, "300")
			rule.Exemption = true
			exempt := fixRule(0, "P002_E", payroll.CategoryAllowance, tt.exempt)
			rule.ExemptPart = &exempt
			if tt.taxable != "" {
				taxable := fixRule(0, "P002_T", payroll.CategoryAllowance, tt.taxable)
				rule.TaxablePart = &taxable
			}

			lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), payroll.Structure{Rules: []payroll.SalaryRule{rule}})
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assertDec(t, tt.wantExempt, lines[0].ExemptAmount)
			assertDec(t, tt.wantTaxable, lines[0].TaxableAmount)
		})
	}
}

func TestEvaluate_CategoryRollUp(t *testing.T) {
	parent := payroll.CategoryAllowance
	structure := payroll.Structure{
		Categories: []payroll.RuleCategory{
			{Code: "HE", Name: "Overtime", ParentCode: &parent},
		},
		Rules: []payroll.SalaryRule{
			fixRule(1, "HE2", "HE", "10"),
			codeRule(2, "CHK", payroll.CategoryOtherPayment, "categories('ALW') + categories('HE')"),
		},
	}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), structure)
	require.NoError(t, err)

	chk, ok := lineByCode(lines, "CHK")
	require.True(t, ok)
	assertDec(t, "20", chk.Total)
}

func TestEvaluate_LookupFunctions(t *testing.T) {
	slip := testSlip()
	slip.Inputs = []payroll.InputLine{
		{Code: "HE2", Amount: dec("120")},
		{Code: "HE2", Amount: dec("30")},
	}
	slip.YearToDate = map[string]decimal.Decimal{"P001": dec("10000")}

	structure := payroll.Structure{Rules: []payroll.SalaryRule{
		codeRule(1, "IN", payroll.CategoryAllowance, "inputs('HE2')"),
		codeRule(2, "YTD", payroll.CategoryOtherPayment, "payslips('P001') + payslips('UNKNOWN')"),
		codeRule(3, "HRS", payroll.CategoryOtherPayment, "worked_hours('WORK100')"),
		codeRule(4, "SUB", payroll.CategoryOtherPayment, "subsidy(wage)"),
		codeRule(5, "MAX", payroll.CategoryOtherPayment, "max(min(wage, 100), abs(-5))"),
		codeRule(6, "RUL", payroll.CategoryOtherPayment, "rules('IN') + rules('MISSING')"),
	}}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(slip, structure)
	require.NoError(t, err)
	require.Len(t, lines, 6)

	assertDec(t, "150", lines[0].Total)
	assertDec(t, "10000", lines[1].Total)
	assertDec(t, "56", lines[2].Total)
	assertDec(t, "100", lines[3].Total)
	assertDec(t, "100", lines[4].Total)
	assertDec(t, "150", lines[5].Total)
}

func TestEvaluate_DuplicateWorkedDaysLastWins(t *testing.T) {
	slip := testSlip()
	slip.WorkedDays = []payroll.WorkedDaysEntry{
		{Code: "WORK100", NumberOfDays: dec("7"), NumberOfHours: dec("56")},
		{Code: "WORK100", NumberOfDays: dec("5"), NumberOfHours: dec("40")},
	}

	structure := payroll.Structure{Rules: []payroll.SalaryRule{
		codeRule(1, "DAYS", payroll.CategoryOtherPayment, "worked_days('WORK100')"),
		codeRule(2, "HRS", payroll.CategoryOtherPayment, "worked_hours('WORK100')"),
	}}

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(slip, structure)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assertDec(t, "5", lines[0].Total)
	assertDec(t, "40", lines[1].Total)
}

func TestEvaluate_NameAndHideRule(t *testing.T) {
	rule := fixRule(1, "P001", payroll.CategoryAllowance, "1")
	rule.Name = "Salary"
	rule.Translations = map[string]string{"es_MX": "Sueldo"}
	rule.Hideable = true

	lines, err := NewRuleEvaluator(testSettings()).Evaluate(testSlip(), payroll.Structure{Rules: []payroll.SalaryRule{rule}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Sueldo", lines[0].Name)
	assert.True(t, lines[0].HideRule)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr error
	}{
		{"unknown identifier", "missing_var * 2", payroll.ErrRuleEvaluation},
		{"syntax error", "wage * (", payroll.ErrInvalidExpression},
		{"isr without table for period", "isr(wage)", payroll.ErrConfiguration},
		{"division by zero", "wage / worked_days('NOPE')", errDivisionByZero},
		{"zero over zero", "(wage - wage) / 0", errDivisionByZero},
		{"division by zero inside function", "round(wage / 0, 2)", payroll.ErrRuleEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slip := testSlip()
			slip.PeriodType = payroll.PeriodTypeMonthly

			_, err := NewRuleEvaluator(testSettings()).Evaluate(slip, payroll.Structure{Rules: []payroll.SalaryRule{
				codeRule(1, "BAD", payroll.CategoryAllowance, tt.expr),
			}})
			require.Error(t, err)
			assert.ErrorIs(t, err, payroll.ErrRuleEvaluation)
			assert.ErrorIs(t, err, tt.wantErr)

			var ruleErr *payroll.RuleError
			require.True(t, errors.As(err, &ruleErr))
			assert.Equal(t, "BAD", ruleErr.Code)
		})
	}
}

func TestValidateStructure(t *testing.T) {
	assert.NoError(t, ValidateStructure(weeklyStructure()))

	rule := fixRule(1, "P002", payroll.CategoryAllowance, "300")
	rule.Exemption = true
	exempt := codeRule(0, "P002_E", payroll.CategoryAllowance, "uma * (")
	rule.ExemptPart = &exempt

	err := ValidateStructure(payroll.Structure{Rules: []payroll.SalaryRule{rule}})
	assert.ErrorIs(t, err, payroll.ErrInvalidExpression)
}
