package payroll

import (
	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// IMSS contributions are computed over a weekly base.
var contributionPeriodDays = decimal.NewFromInt(7)

var (
	umaCapFactor    = decimal.NewFromInt(25)
	umaExcessFactor = decimal.NewFromInt(3)
)

// ContributionCalculator computes IMSS employee, employer and INFONAVIT
// amounts from the worked-days breakdown and the contract SBC.
type ContributionCalculator struct {
	uma   decimal.Decimal
	rates payroll.RateTable
}

func NewContributionCalculator(settings payroll.Settings) *ContributionCalculator {
	return &ContributionCalculator{uma: settings.UMA, rates: settings.Rates}
}

// Compute returns the total of the requested kind.
func (c *ContributionCalculator) Compute(slip payroll.Payslip, kind payroll.ContributionKind) (decimal.Decimal, error) {
	switch kind {
	case payroll.ContributionEmployee, payroll.ContributionCompany, payroll.ContributionInfonavit:
	default:
		return decimal.Zero, &payroll.ConfigurationError{
			Record:  "payslip " + slip.Name,
			Field:   "imss_type",
			Message: "you need to define the type of IMSS data: employee, company or infonavit, got '" + string(kind) + "'",
		}
	}

	b, err := c.Breakdown(slip)
	if err != nil {
		return decimal.Zero, err
	}

	switch kind {
	case payroll.ContributionEmployee:
		return b.EmployeeTotal, nil
	case payroll.ContributionCompany:
		return b.EmployerTotal, nil
	default:
		return b.Infonavit, nil
	}
}

// Days derives the effective-day counters from the worked-days entries.
// Unpaid absence (FI, FJS) reduces worked days and days left; incapacity
// (INC_*) reduces worked days and full days. With no attendance-type entry
// at all, full and worked days drop to zero while days left is kept.
func (c *ContributionCalculator) Days(entries []payroll.WorkedDaysEntry) payroll.ContributionDays {
	full := contributionPeriodDays
	worked := contributionPeriodDays
	left := contributionPeriodDays
	attendance := decimal.Zero

	for _, wd := range entries {
		switch wd.Code {
		case payroll.WorkedDaysUnpaidAbsence, payroll.WorkedDaysUnjustifiedAbsence:
			worked = worked.Sub(wd.NumberOfDays)
			left = left.Sub(wd.NumberOfDays)
		case payroll.WorkedDaysMaternityIncapacity, payroll.WorkedDaysIllnessIncapacity, payroll.WorkedDaysWorkRiskIncapacity:
			worked = worked.Sub(wd.NumberOfDays)
			full = full.Sub(wd.NumberOfDays)
		case payroll.WorkedDaysAttendance, payroll.WorkedDaysJustifiedAbsence, payroll.WorkedDaysSeventhDay, payroll.WorkedDaysVacation:
			attendance = attendance.Add(wd.NumberOfDays)
		}
	}

	if attendance.IsZero() {
		worked = decimal.Zero
		full = decimal.Zero
	}

	return payroll.ContributionDays{FullDays: full, DaysLeft: left, WorkedDays: worked}
}

// Bases returns the SBC capped at 25 UMA and the part of it above 3 UMA.
func (c *ContributionCalculator) Bases(sbc decimal.Decimal) (baseCal, excessBase decimal.Decimal) {
	limit := umaCapFactor.Mul(c.uma)
	baseCal = sbc
	if !sbc.LessThan(limit) {
		baseCal = limit
	}

	excessBase = decimal.Zero
	floor := umaExcessFactor.Mul(c.uma)
	if baseCal.GreaterThan(floor) {
		excessBase = baseCal.Sub(floor)
	}
	return baseCal, excessBase
}

// Breakdown computes every contribution line of the payslip. Only the
// salaried (02) and separation (13) fiscal regimes contribute; for any
// other regime all amounts are zero.
func (c *ContributionCalculator) Breakdown(slip payroll.Payslip) (payroll.Contribution, error) {
	if slip.Contract == nil {
		return payroll.Contribution{}, &payroll.ConfigurationError{Record: "payslip " + slip.Name, Field: "contract_id", Message: "there is no contract set on the payslip"}
	}
	if slip.Employee == nil {
		return payroll.Contribution{}, &payroll.ConfigurationError{Record: "payslip " + slip.Name, Field: "employee_id", Message: "there is no employee set on the payslip"}
	}
	if !c.uma.IsPositive() {
		return payroll.Contribution{}, &payroll.ConfigurationError{Record: "payroll_settings", Field: "uma", Message: "UMA daily value is not configured"}
	}

	days := c.Days(slip.WorkedDays)
	baseCal, excessBase := c.Bases(slip.Contract.SBC)

	b := payroll.Contribution{Days: days, BaseCal: baseCal, ExcessBase: excessBase}
	if !slip.Employee.FiscalRegime.PaysSocialSecurity() {
		return b, nil
	}

	r := c.rates
	full := days.FullDays

	b.EmployeeExcess = line(full, r.EmployeeExcess, excessBase)
	b.EmployeeCashBenefits = line(full, r.EmployeeCashBenefits, baseCal)
	b.EmployeePensioners = line(full, r.EmployeePensioners, baseCal)
	b.EmployeeDisabilityLife = line(full, r.EmployeeDisabilityLife, baseCal)
	b.EmployeeUnemploymentOldAge = line(full, r.EmployeeUnemploymentOldAge, baseCal)
	b.EmployeeTotal = b.EmployeeExcess.
		Add(b.EmployeeCashBenefits).
		Add(b.EmployeePensioners).
		Add(b.EmployeeDisabilityLife).
		Add(b.EmployeeUnemploymentOldAge).
		Round(2)

	jobRisk := employee.DefaultJobRiskValue
	if reg := slip.Employee.EmployerRegister; reg != nil {
		jobRisk = reg.JobRiskValue
	}

	b.EmployerFixedFee = line(full, r.EmployerFixedFee, c.uma)
	b.EmployerExcess = line(full, r.EmployerExcess, excessBase)
	b.EmployerCashBenefits = line(full, r.EmployerCashBenefits, baseCal)
	b.EmployerPensioners = line(full, r.EmployerPensioners, baseCal)
	b.EmployerJobRisk = line(full, jobRisk, baseCal)
	b.EmployerDisabilityLife = line(full, r.EmployerDisabilityLife, baseCal)
	b.EmployerNursery = line(full, r.EmployerNursery, baseCal)
	b.EmployerRetirement = line(days.DaysLeft, r.EmployerRetirement, baseCal)
	b.EmployerUnemploymentOldAge = line(days.WorkedDays, r.EmployerUnemploymentOldAge, baseCal)
	b.Infonavit = line(days.DaysLeft, r.Infonavit, baseCal)
	b.EmployerTotal = b.EmployerFixedFee.
		Add(b.EmployerExcess).
		Add(b.EmployerCashBenefits).
		Add(b.EmployerPensioners).
		Add(b.EmployerJobRisk).
		Add(b.EmployerDisabilityLife).
		Add(b.EmployerNursery).
		Add(b.EmployerRetirement).
		Add(b.EmployerUnemploymentOldAge).
		Add(b.Infonavit)

	return b, nil
}

// line is round(days × rate% × base, 2).
func line(days, rate, base decimal.Decimal) decimal.Decimal {
	return days.Mul(rate).Mul(base).Div(hundred).Round(2)
}
