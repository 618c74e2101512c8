package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ContractRepository defines data access methods for contracts.
// All methods include companyID parameter to prevent cross-company data access attacks.
type ContractRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Contract, error)
	// ListOpen returns open contracts with their allowance catalog joined.
	ListOpen(ctx context.Context, companyID string) ([]Contract, error)
	ListOpenInPeriod(ctx context.Context, companyID string, dateFrom, dateTo time.Time) ([]Contract, error)
	ListCompanyIDsWithOpenContracts(ctx context.Context) ([]string, error)
	GetAllowanceCatalog(ctx context.Context, id string, companyID string) (AllowanceCatalog, error)
	UpdateWage(ctx context.Context, id string, companyID string, wage decimal.Decimal) error
	UpdateBase(ctx context.Context, id string, companyID string, antiquity int, sdi, sbc decimal.Decimal) error

	// Salary history
	CreateSalaryHistory(ctx context.Context, history SalaryHistory) (SalaryHistory, error)
	GetSalaryHistoryByIncrease(ctx context.Context, salaryIncreaseID string, companyID string) (SalaryHistory, error)
	UpdateSalaryHistoryState(ctx context.Context, id string, companyID string, state SalaryHistoryState) error
	// ApplySalaryHistory pushes the new wage and SDI into the contract and
	// marks the history and its salary increase as applied.
	ApplySalaryHistory(ctx context.Context, history SalaryHistory) error
	ListDueSalaryHistories(ctx context.Context, date time.Time) ([]SalaryHistory, error)
}
