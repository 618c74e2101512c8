package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testCompanyID = "company-1"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testSettings() payroll.Settings {
	return payroll.Settings{
		ID:               "settings-1",
		CompanyID:        testCompanyID,
		UMA:              dec("100"),
		MinimumWageZone1: dec("248.93"),
		MinimumWageZone2: dec("374.89"),
		Rates:            payroll.DefaultRateTable(),
		ISRTables: map[payroll.PeriodType][]payroll.ISRTableLine{
			payroll.PeriodTypeWeekly: {
				{LowerLimit: dec("0.01"), UpperLimit: dec("1000"), FixedFee: dec("0"), Percent: dec("1.92")},
				{LowerLimit: dec("1000.01"), UpperLimit: dec("9999999"), FixedFee: dec("19.20"), Percent: dec("10.88")},
			},
		},
		SubsidyTables: map[payroll.PeriodType][]payroll.SubsidyTableLine{
			payroll.PeriodTypeWeekly: {
				{LowerLimit: dec("0.01"), UpperLimit: dec("1000"), FixedFee: dec("100")},
				{LowerLimit: dec("1000.01"), UpperLimit: dec("9999999"), FixedFee: dec("0")},
			},
		},
		SettlementStructures: map[string]string{},
	}
}

func testContract() contract.Contract {
	first := date(2020, time.January, 6)
	return contract.Contract{
		ID:                "contract-1",
		CompanyID:         testCompanyID,
		EmployeeID:        "employee-1",
		Name:              "Ana weekly",
		Wage:              dec("500"),
		SDI:               dec("525"),
		SBC:               dec("525"),
		Antiquity:         3,
		FirstContractDate: &first,
		DateStart:         first,
		SalaryType:        contract.SalaryTypeFixed,
		StructureType:     contract.StructureTypeWeekly,
		State:             contract.StateOpen,
	}
}

func testEmployee() employee.Employee {
	return employee.Employee{
		ID:             "employee-1",
		CompanyID:      testCompanyID,
		EmployeeNumber: "E001",
		FullName:       "Ana López",
		Lang:           "es_MX",
		FiscalRegime:   employee.FiscalRegimeSalaries,
	}
}

func testSlip() payroll.Payslip {
	ct := testContract()
	emp := testEmployee()
	return payroll.Payslip{
		ID:          "payslip-1",
		CompanyID:   testCompanyID,
		EmployeeID:  emp.ID,
		ContractID:  &ct.ID,
		StructureID: "structure-1",
		Name:        "Week 1",
		DateFrom:    date(2024, time.January, 1),
		DateTo:      date(2024, time.January, 7),
		PeriodType:  payroll.PeriodTypeWeekly,
		State:       payroll.PayslipStateDraft,
		Contract:    &ct,
		Employee:    &emp,
		WorkedDays: []payroll.WorkedDaysEntry{
			{Code: payroll.WorkedDaysAttendance, NumberOfDays: dec("7"), NumberOfHours: dec("56")},
		},
	}
}

func codeRule(seq int, code, category, expr string) payroll.SalaryRule {
	return payroll.SalaryRule{
		ID:              "rule-" + code,
		Sequence:        seq,
		Code:            code,
		Name:            code,
		CategoryCode:    category,
		ConditionSelect: payroll.ConditionNone,
		AmountSelect:    payroll.AmountCode,
		AmountExpr:      expr,
		Active:          true,
	}
}

func fixRule(seq int, code, category, amount string) payroll.SalaryRule {
	return payroll.SalaryRule{
		ID:              "rule-" + code,
		Sequence:        seq,
		Code:            code,
		Name:            code,
		CategoryCode:    category,
		ConditionSelect: payroll.ConditionNone,
		AmountSelect:    payroll.AmountFix,
		AmountFix:       dec(amount),
		Active:          true,
	}
}

// weeklyStructure is a small but complete weekly structure: salary, ISR,
// IMSS and the TALW/TDED totals.
func weeklyStructure() payroll.Structure {
	return payroll.Structure{
		ID:   "structure-1",
		Code: "WEEKLY",
		Name: "Weekly payroll",
		Type: contract.StructureTypeWeekly,
		Rules: []payroll.SalaryRule{
			codeRule(300, "NET", payroll.CategoryNet, "TALW - TDED"),
			codeRule(1, "BASIC", payroll.CategoryBasic, "wage * worked_days('WORK100')"),
			codeRule(10, "P001", payroll.CategoryAllowance, "BASIC"),
			codeRule(100, "GROSS", payroll.CategoryGross, "categories('ALW')"),
			codeRule(150, "D045", payroll.CategoryDeduction, "round(isr(GROSS), 2)"),
			codeRule(160, "D001", payroll.CategoryDeduction, "imss('employee')"),
			codeRule(200, "TALW", payroll.CategoryNet, "categories('ALW')"),
			codeRule(210, "TDED", payroll.CategoryNet, "categories('DED')"),
		},
	}
}

func lineCodes(lines []payroll.ResultLine) []string {
	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		codes = append(codes, l.Code)
	}
	return codes
}

func lineByCode(lines []payroll.ResultLine, code string) (payroll.ResultLine, bool) {
	for _, l := range lines {
		if l.Code == code {
			return l, true
		}
	}
	return payroll.ResultLine{}, false
}
