package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== SETTINGS DTOs ==========

type SettingsResponse struct {
	CompanyID            string                            `json:"company_id"`
	UMA                  decimal.Decimal                   `json:"uma"`
	MinimumWageZone1     decimal.Decimal                   `json:"minimum_wage_zone1"`
	MinimumWageZone2     decimal.Decimal                   `json:"minimum_wage_zone2"`
	Rates                RateTable                         `json:"rates"`
	ISRTables            map[PeriodType][]ISRTableLine     `json:"isr_tables"`
	SubsidyTables        map[PeriodType][]SubsidyTableLine `json:"subsidy_tables"`
	SettlementStructures map[string]string                 `json:"settlement_structures"`
}

type UpdateSettingsRequest struct {
	UMA                  *decimal.Decimal                  `json:"uma,omitempty"`
	MinimumWageZone1     *decimal.Decimal                  `json:"minimum_wage_zone1,omitempty"`
	MinimumWageZone2     *decimal.Decimal                  `json:"minimum_wage_zone2,omitempty"`
	Rates                *RateTable                        `json:"rates,omitempty"`
	ISRTables            map[PeriodType][]ISRTableLine     `json:"isr_tables,omitempty"`
	SubsidyTables        map[PeriodType][]SubsidyTableLine `json:"subsidy_tables,omitempty"`
	SettlementStructures map[string]string                 `json:"settlement_structures,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.UMA != nil && !r.UMA.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "uma", Message: "must be greater than zero"})
	}
	if r.MinimumWageZone1 != nil && r.MinimumWageZone1.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "minimum_wage_zone1", Message: "must be non-negative"})
	}
	if r.MinimumWageZone2 != nil && r.MinimumWageZone2.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "minimum_wage_zone2", Message: "must be non-negative"})
	}
	for period, lines := range r.ISRTables {
		for _, line := range lines {
			if line.UpperLimit.LessThan(line.LowerLimit) {
				errs = append(errs, validator.ValidationError{Field: "isr_tables." + string(period), Message: "upper limit must not be below lower limit"})
				break
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== PAYSLIP DTOs ==========

type GenerateBatchRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	DateFrom    string `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo      string `json:"date_to" validate:"required,datetime=2006-01-02"`
	StructureID string `json:"structure_id" validate:"required"`
	PeriodType  string `json:"period_type" validate:"required,oneof=d w t b m a"`
}

func (r *GenerateBatchRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	from, _ := time.Parse("2006-01-02", r.DateFrom)
	to, _ := time.Parse("2006-01-02", r.DateTo)
	if to.Before(from) {
		return validator.ValidationErrors{{Field: "date_to", Message: "must not be before date_from"}}
	}
	return nil
}

// CreatePayslipRequest creates a single payslip outside of a batch.
type CreatePayslipRequest struct {
	Name        string
	EmployeeID  string
	ContractID  string
	StructureID string
	DateFrom    time.Time
	DateTo      time.Time
	PaymentDay  *time.Time
	PeriodType  PeriodType
	Inputs      []InputLine
}

type WorkedDaysResponse struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	NumberOfDays  decimal.Decimal `json:"number_of_days"`
	NumberOfHours decimal.Decimal `json:"number_of_hours"`
}

type InputLineResponse struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source"`
}

type ResultLineResponse struct {
	Sequence      int             `json:"sequence"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	RuleType      string          `json:"rule_type"`
	Amount        decimal.Decimal `json:"amount"`
	Quantity      decimal.Decimal `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	Total         decimal.Decimal `json:"total"`
	ExemptAmount  decimal.Decimal `json:"exempt_amount"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	HideRule      bool            `json:"hide_rule"`
}

type TotalsResponse struct {
	AllowanceTotal decimal.Decimal `json:"allowance_total"`
	DeductionTotal decimal.Decimal `json:"deduction_total"`
	OtherPayments  decimal.Decimal `json:"other_payments"`
	AmountSubtotal decimal.Decimal `json:"amount_subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Retentions     decimal.Decimal `json:"retentions"`
	AmountTotal    decimal.Decimal `json:"amount_total"`
}

type PayslipResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	EmployeeID   string               `json:"employee_id"`
	ContractID   *string              `json:"contract_id,omitempty"`
	StructureID  string               `json:"structure_id"`
	PayslipRunID *string              `json:"payslip_run_id,omitempty"`
	DateFrom     string               `json:"date_from"`
	DateTo       string               `json:"date_to"`
	PaymentDay   *string              `json:"payment_day,omitempty"`
	PeriodType   string               `json:"period_type"`
	State        string               `json:"state"`
	Antiquity    string               `json:"antiquity,omitempty"`
	WorkedDays   []WorkedDaysResponse `json:"worked_days"`
	Inputs       []InputLineResponse  `json:"inputs"`
	Lines        []ResultLineResponse `json:"lines"`
	Totals       TotalsResponse       `json:"totals"`
}

type PayslipRunResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DateFrom    string            `json:"date_from"`
	DateTo      string            `json:"date_to"`
	StructureID string            `json:"structure_id"`
	PeriodType  string            `json:"period_type"`
	State       string            `json:"state"`
	Payslips    []PayslipResponse `json:"payslips"`
}

type ContributionResponse struct {
	PayslipID  string          `json:"payslip_id"`
	Kind       string          `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	BaseCal    decimal.Decimal `json:"base_cal"`
	ExcessBase decimal.Decimal `json:"excess_base"`
	FullDays   decimal.Decimal `json:"full_days"`
	DaysLeft   decimal.Decimal `json:"days_left"`
	WorkedDays decimal.Decimal `json:"worked_days"`
}
