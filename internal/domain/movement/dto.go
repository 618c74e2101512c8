package movement

import (
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	EmployeeID  string          `json:"employee_id" validate:"required"`
	DateStart   string          `json:"date_start" validate:"required,datetime=2006-01-02"`
	DateEnd     *string         `json:"date_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Amount      decimal.Decimal `json:"amount"`
	Periods     int             `json:"periods" validate:"gte=0"`
	InputCode   string          `json:"input_code" validate:"required,max=20"`
	Note        *string         `json:"note,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	var errs validator.ValidationErrors
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.TotalAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "total_amount", Message: "must be non-negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CreateAlimonyRequest struct {
	EmployeeID  string          `json:"employee_id" validate:"required"`
	DateStart   string          `json:"date_start" validate:"required,datetime=2006-01-02"`
	DateEnd     *string         `json:"date_end,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Proceeding  string          `json:"proceeding" validate:"required"`
	Folio       string          `json:"folio"`
	Beneficiary string          `json:"beneficiary" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	AmountType  string          `json:"amount_type" validate:"required,oneof=percent amount_fixed"`
	InputCode   string          `json:"input_code" validate:"required,max=20"`
	Note        *string         `json:"note,omitempty"`
}

var (
	minAlimonyAmount  = decimal.NewFromInt(1)
	maxAlimonyPercent = decimal.NewFromInt(99)
)

func (r *CreateAlimonyRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.Amount.LessThan(minAlimonyAmount) {
		return validator.ValidationErrors{{Field: "amount", Message: "must be at least 1"}}
	}
	if AlimonyAmountType(r.AmountType) == AlimonyPercent && r.Amount.GreaterThan(maxAlimonyPercent) {
		return validator.ValidationErrors{{Field: "amount", Message: "percent alimony cannot exceed 99"}}
	}
	return nil
}

type CreateSettlementRequest struct {
	EmployeeID         string  `json:"employee_id" validate:"required"`
	ContractID         string  `json:"contract_id" validate:"required"`
	ReasonForDismissal string  `json:"reason_for_dismissal" validate:"required"`
	CDateStart         string  `json:"cdate_start" validate:"required,datetime=2006-01-02"`
	CDateEnd           string  `json:"cdate_end" validate:"required,datetime=2006-01-02"`
	PaymentDay         *string `json:"payment_day,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes              *string `json:"notes,omitempty"`
}

func (r *CreateSettlementRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if ClassifySettlement(DismissalReason(r.ReasonForDismissal)) == SettlementTypeUndefined {
		return validator.ValidationErrors{{Field: "reason_for_dismissal", Message: "is not a recognized dismissal reason"}}
	}
	return nil
}

type CreatePTUProcessRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	AmountToShare decimal.Decimal `json:"amount_to_share"`
	StructureID   *string         `json:"structure_id,omitempty"`
	Note          *string         `json:"note,omitempty"`
}

func (r *CreatePTUProcessRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.AmountToShare.LessThan(decimal.NewFromInt(1)) {
		return validator.ValidationErrors{{Field: "amount_to_share", Message: "must be at least 1"}}
	}
	return nil
}

type ExtratimeLineRequest struct {
	Date     string          `json:"date" validate:"required,datetime=2006-01-02"`
	Hours    decimal.Decimal `json:"hours"`
	TypeHour string          `json:"type_hour" validate:"required,oneof=double triple"`
}

type CreateExtratimeRequest struct {
	EmployeeID string                 `json:"employee_id" validate:"required"`
	ContractID *string                `json:"contract_id,omitempty"`
	DateFrom   string                 `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo     string                 `json:"date_to" validate:"required,datetime=2006-01-02"`
	Lines      []ExtratimeLineRequest `json:"lines" validate:"required,min=1,dive"`
	Notes      *string                `json:"notes,omitempty"`
}

func (r *CreateExtratimeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	for _, line := range r.Lines {
		if !line.Hours.IsPositive() {
			return validator.ValidationErrors{{Field: "lines.hours", Message: "must be greater than zero"}}
		}
	}
	return nil
}

type CreateSalaryIncreaseRequest struct {
	ContractID string          `json:"contract_id" validate:"required"`
	DateApply  string          `json:"date_apply" validate:"required,datetime=2006-01-02"`
	NewWage    decimal.Decimal `json:"new_wage"`
	Notes      *string         `json:"notes,omitempty"`
}

func (r *CreateSalaryIncreaseRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if !r.NewWage.IsPositive() {
		return validator.ValidationErrors{{Field: "new_wage", Message: "must be greater than zero"}}
	}
	return nil
}

type MovementResponse struct {
	ID              string           `json:"id"`
	Kind            string           `json:"kind"`
	Name            string           `json:"name"`
	EmployeeID      *string          `json:"employee_id,omitempty"`
	State           string           `json:"state"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	SettlementType  *string          `json:"settlement_type,omitempty"`
	PayslipID       *string          `json:"payslip_id,omitempty"`
	SalaryHistoryID *string          `json:"salary_history_id,omitempty"`
	NewSDI          *decimal.Decimal `json:"new_sdi,omitempty"`
}
