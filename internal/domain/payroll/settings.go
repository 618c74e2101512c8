package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds the IMSS contribution percentages. A company has exactly
// one table; there is no effective dating.
type RateTable struct {
	EmployeeExcess             decimal.Decimal `json:"employee_excess"`
	EmployeeCashBenefits       decimal.Decimal `json:"employee_cash_benefits"`
	EmployeePensioners         decimal.Decimal `json:"employee_pensioners"`
	EmployeeDisabilityLife     decimal.Decimal `json:"employee_disability_life"`
	EmployeeUnemploymentOldAge decimal.Decimal `json:"employee_unemployment_old_age"`

	EmployerFixedFee           decimal.Decimal `json:"employer_fixed_fee"`
	EmployerExcess             decimal.Decimal `json:"employer_excess"`
	EmployerCashBenefits       decimal.Decimal `json:"employer_cash_benefits"`
	EmployerPensioners         decimal.Decimal `json:"employer_pensioners"`
	EmployerDisabilityLife     decimal.Decimal `json:"employer_disability_life"`
	EmployerNursery            decimal.Decimal `json:"employer_nursery"`
	EmployerRetirement         decimal.Decimal `json:"employer_retirement"`
	EmployerUnemploymentOldAge decimal.Decimal `json:"employer_unemployment_old_age"`
	Infonavit                  decimal.Decimal `json:"infonavit"`
}

// DefaultRateTable returns the statutory percentages.
func DefaultRateTable() RateTable {
	return RateTable{
		EmployeeExcess:             decimal.RequireFromString("0.40"),
		EmployeeCashBenefits:       decimal.RequireFromString("0.375"),
		EmployeePensioners:         decimal.RequireFromString("0.25"),
		EmployeeDisabilityLife:     decimal.RequireFromString("0.625"),
		EmployeeUnemploymentOldAge: decimal.RequireFromString("1.125"),

		EmployerFixedFee:           decimal.RequireFromString("20.40"),
		EmployerExcess:             decimal.RequireFromString("1.10"),
		EmployerCashBenefits:       decimal.RequireFromString("1.05"),
		EmployerPensioners:         decimal.RequireFromString("0.70"),
		EmployerDisabilityLife:     decimal.RequireFromString("1.75"),
		EmployerNursery:            decimal.RequireFromString("1.00"),
		EmployerRetirement:         decimal.RequireFromString("2.00"),
		EmployerUnemploymentOldAge: decimal.RequireFromString("3.15"),
		Infonavit:                  decimal.RequireFromString("5.0"),
	}
}

// ISRTableLine is one bracket of the income tax tariff.
type ISRTableLine struct {
	LowerLimit decimal.Decimal `json:"lower_limit"`
	UpperLimit decimal.Decimal `json:"upper_limit"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
	Percent    decimal.Decimal `json:"percent"`
}

// SubsidyTableLine is one bracket of the employment subsidy table.
type SubsidyTableLine struct {
	LowerLimit decimal.Decimal `json:"lower_limit"`
	UpperLimit decimal.Decimal `json:"upper_limit"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
}

// Settings is the per-company configuration snapshot a computation pass
// runs against. It is resolved once per pass and passed explicitly.
type Settings struct {
	ID                   string                            `json:"id"`
	CompanyID            string                            `json:"company_id"`
	UMA                  decimal.Decimal                   `json:"uma"`
	MinimumWageZone1     decimal.Decimal                   `json:"minimum_wage_zone1"`
	MinimumWageZone2     decimal.Decimal                   `json:"minimum_wage_zone2"`
	Rates                RateTable                         `json:"rates"`
	ISRTables            map[PeriodType][]ISRTableLine     `json:"isr_tables"`
	SubsidyTables        map[PeriodType][]SubsidyTableLine `json:"subsidy_tables"`
	SettlementStructures map[string]string                 `json:"settlement_structures"`
	CreatedAt            time.Time                         `json:"created_at"`
	UpdatedAt            time.Time                         `json:"updated_at"`
}

// Validate reports missing values the calculators cannot run without.
func (s Settings) Validate() error {
	if !s.UMA.IsPositive() {
		return &ConfigurationError{Record: "payroll_settings", Field: "uma", Message: "UMA daily value is not configured"}
	}
	return nil
}

// SettlementStructureKey builds the SettlementStructures key for a
// settlement type and contract structure type.
func SettlementStructureKey(settlementType, structureType string) string {
	return settlementType + ":" + structureType
}

// SettlementStructureID returns the structure used to compute a separation
// payslip.
func (s Settings) SettlementStructureID(settlementType, structureType string) (string, error) {
	id, ok := s.SettlementStructures[SettlementStructureKey(settlementType, structureType)]
	if !ok || id == "" {
		return "", &ConfigurationError{
			Record:  "payroll_settings",
			Field:   "settlement_structures",
			Message: "no structure configured for " + settlementType + " of " + structureType + " contracts",
		}
	}
	return id, nil
}

// ISR returns the tariff for base in the table of the period type:
// fixed fee plus the marginal percent over the lower limit.
func (s Settings) ISR(period PeriodType, base decimal.Decimal) (decimal.Decimal, error) {
	table, ok := s.ISRTables[period]
	if !ok || len(table) == 0 {
		return decimal.Zero, &ConfigurationError{Record: "payroll_settings", Field: "isr_tables", Message: "no ISR table for period type " + string(period)}
	}
	i := bracketIndex(len(table), base, func(i int) decimal.Decimal { return table[i].LowerLimit })
	if i < 0 {
		return decimal.Zero, nil
	}
	line := table[i]
	excess := base.Sub(line.LowerLimit)
	return line.FixedFee.Add(excess.Mul(line.Percent).Div(decimal.NewFromInt(100))), nil
}

// Subsidy returns the employment subsidy for base in the table of the
// period type.
func (s Settings) Subsidy(period PeriodType, base decimal.Decimal) (decimal.Decimal, error) {
	table, ok := s.SubsidyTables[period]
	if !ok || len(table) == 0 {
		return decimal.Zero, &ConfigurationError{Record: "payroll_settings", Field: "subsidy_tables", Message: "no subsidy table for period type " + string(period)}
	}
	i := bracketIndex(len(table), base, func(i int) decimal.Decimal { return table[i].LowerLimit })
	if i < 0 {
		return decimal.Zero, nil
	}
	return table[i].FixedFee, nil
}

// bracketIndex picks the bracket with the highest lower limit not above
// base. Tariffs are published to the cent, so a base between one upper
// limit and the next lower limit belongs to the lower bracket. -1 when base
// is below every bracket.
func bracketIndex(n int, base decimal.Decimal, lower func(i int) decimal.Decimal) int {
	best := -1
	for i := 0; i < n; i++ {
		if lower(i).GreaterThan(base) {
			continue
		}
		if best < 0 || lower(i).GreaterThan(lower(best)) {
			best = i
		}
	}
	return best
}
