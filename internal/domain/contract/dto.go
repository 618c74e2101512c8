package contract

import (
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type UpdateWageRequest struct {
	ID   string          `json:"-"`
	Wage decimal.Decimal `json:"wage"`
}

func (r *UpdateWageRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID == "" {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if !r.Wage.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "wage", Message: "must be greater than zero"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SalaryBaseResponse struct {
	ContractID string          `json:"contract_id"`
	Wage       decimal.Decimal `json:"wage"`
	Antiquity  int             `json:"antiquity"`
	SDI        decimal.Decimal `json:"sdi"`
	SBC        decimal.Decimal `json:"sbc"`
	Updated    bool            `json:"updated"`
}

// CronResult summarizes one run of a contract maintenance job.
type CronResult struct {
	Processed int
	Updated   int
	Failed    int
}
