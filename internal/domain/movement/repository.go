package movement

import (
	"context"
	"time"
)

// MovementRepository defines data access methods for financial movements.
// All methods include companyID parameter to prevent cross-company data access attacks.
type MovementRepository interface {
	// Shared by every kind
	GetState(ctx context.Context, kind Kind, id string, companyID string) (State, error)
	UpdateState(ctx context.Context, kind Kind, id string, companyID string, state State) error
	Delete(ctx context.Context, kind Kind, id string, companyID string) error

	CreateLoan(ctx context.Context, loan Loan) (Loan, error)
	GetLoan(ctx context.Context, id string, companyID string) (Loan, error)
	ListApprovedLoans(ctx context.Context, employeeID string, companyID string, dateFrom, dateTo time.Time) ([]Loan, error)

	CreateAlimony(ctx context.Context, alimony Alimony) (Alimony, error)
	GetAlimony(ctx context.Context, id string, companyID string) (Alimony, error)
	ListApprovedAlimonies(ctx context.Context, employeeID string, companyID string, dateFrom, dateTo time.Time) ([]Alimony, error)

	CreateSettlement(ctx context.Context, settlement Settlement) (Settlement, error)
	GetSettlement(ctx context.Context, id string, companyID string) (Settlement, error)
	SetSettlementPayslip(ctx context.Context, id string, companyID string, structureID, payslipID string) error

	CreatePTUProcess(ctx context.Context, ptu PTUProcess) (PTUProcess, error)
	GetPTUProcess(ctx context.Context, id string, companyID string) (PTUProcess, error)

	CreateExtratime(ctx context.Context, extratime Extratime) (Extratime, error)
	GetExtratime(ctx context.Context, id string, companyID string) (Extratime, error)
	UpdateExtratimeLinesState(ctx context.Context, extratimeID string, companyID string, state State) error
	ListApprovedExtratime(ctx context.Context, employeeID string, companyID string, dateFrom, dateTo time.Time) ([]Extratime, error)

	CreateSalaryIncrease(ctx context.Context, increase SalaryIncrease) (SalaryIncrease, error)
	GetSalaryIncrease(ctx context.Context, id string, companyID string) (SalaryIncrease, error)
	SetSalaryIncreaseHistory(ctx context.Context, id string, companyID string, salaryHistoryID string) error
}
