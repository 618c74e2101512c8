package movement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind names a financial movement type.
type Kind string

const (
	KindLoan           Kind = "loan"
	KindAlimony        Kind = "alimony"
	KindSettlement     Kind = "settlement"
	KindPTU            Kind = "ptu"
	KindExtratime      Kind = "extratime"
	KindSalaryIncrease Kind = "salary-increase"
)

// ParseKind validates a kind coming from a URL.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindLoan, KindAlimony, KindSettlement, KindPTU, KindExtratime, KindSalaryIncrease:
		return k, nil
	}
	return "", ErrUnknownKind
}

// State enum shared by every movement.
type State string

const (
	StateDraft    State = "draft"
	StateApproved State = "approved"
	StateDone     State = "done"
	StateApplied  State = "applied"
	StateCancel   State = "cancel"
)

// Action enum
type Action string

const (
	ActionApprove Action = "approve"
	ActionDone    Action = "done"
	ActionDraft   Action = "draft"
	ActionCancel  Action = "cancel"
)

// Target returns the state an action moves a movement to, provided it is
// allowed from the current state.
func (a Action) Target(from State) (State, error) {
	switch a {
	case ActionApprove:
		if from == StateDraft {
			return StateApproved, nil
		}
	case ActionDone:
		if from == StateApproved {
			return StateDone, nil
		}
	case ActionDraft:
		if from == StateApproved || from == StateCancel {
			return StateDraft, nil
		}
	case ActionCancel:
		if from == StateDraft || from == StateApproved {
			return StateCancel, nil
		}
	default:
		return "", ErrUnknownAction
	}
	return "", ErrInvalidTransition
}

// Loan - Company loan repaid through payslip deductions.
type Loan struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Name        string
	DateStart   time.Time
	DateEnd     *time.Time
	TotalAmount decimal.Decimal
	TotalPaid   decimal.Decimal
	Amount      decimal.Decimal
	Periods     int
	InputCode   string
	Note        *string
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	Payments []LoanLine
}

// Outstanding is what is left to repay.
func (l Loan) Outstanding() decimal.Decimal {
	if l.TotalAmount.IsZero() {
		return l.Amount
	}
	return decimal.Max(decimal.Zero, l.TotalAmount.Sub(l.TotalPaid))
}

type LoanLine struct {
	ID        string
	LoanID    string
	PayslipID *string
	Date      time.Time
	Amount    decimal.Decimal
	State     State
}

// AlimonyAmountType enum
type AlimonyAmountType string

const (
	AlimonyPercent     AlimonyAmountType = "percent"
	AlimonyAmountFixed AlimonyAmountType = "amount_fixed"
)

// Alimony - Court-ordered child/spousal support withheld from pay.
type Alimony struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Name        string
	DateStart   time.Time
	DateEnd     *time.Time
	Proceeding  string
	Folio       string
	Beneficiary string
	Amount      decimal.Decimal
	AmountType  AlimonyAmountType
	InputCode   string
	Note        *string
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settlement - Separation of an employee: settlement ("finiquito") or
// liquidation depending on the dismissal reason.
type Settlement struct {
	ID                 string
	CompanyID          string
	EmployeeID         string
	ContractID         string
	Name               string
	DateStart          *time.Time
	DateEnd            *time.Time
	ReasonForDismissal DismissalReason
	SettlementType     SettlementType
	CDateStart         time.Time
	CDateEnd           time.Time
	PaymentDay         *time.Time
	StructureID        *string
	PayslipID          *string
	Notes              *string
	State              State
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PTUProcess - Statutory profit sharing distribution.
type PTUProcess struct {
	ID            string
	CompanyID     string
	Name          string
	Date          time.Time
	AmountToShare decimal.Decimal
	PayslipRunID  *string
	StructureID   *string
	Note          *string
	State         State
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HourType enum
type HourType string

const (
	HourDouble HourType = "double"
	HourTriple HourType = "triple"
)

// Input codes overtime hours are reported under.
const (
	InputCodeDoubleHours = "HE2"
	InputCodeTripleHours = "HE3"
)

// Extratime - Overtime sheet for one employee and period.
type Extratime struct {
	ID         string
	CompanyID  string
	EmployeeID string
	ContractID *string
	Name       string
	DateFrom   time.Time
	DateTo     time.Time
	Notes      *string
	State      State
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	Lines []ExtratimeLine
}

type ExtratimeLine struct {
	ID          string
	ExtratimeID string
	Date        time.Time
	Hours       decimal.Decimal
	TypeHour    HourType
	State       State
}

// SalaryIncrease - Wage change for one contract. Approval writes an
// approved salary history; the contract changes when the daily job reaches
// DateApply.
type SalaryIncrease struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	ContractID      string
	Name            string
	DateApply       time.Time
	CurrentWage     decimal.Decimal
	CurrentSDI      decimal.Decimal
	NewWage         decimal.Decimal
	NewSDI          decimal.Decimal
	SalaryHistoryID *string
	Notes           *string
	State           State
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
