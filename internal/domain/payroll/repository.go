package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Settings
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	UpsertSettings(ctx context.Context, settings Settings) (Settings, error)

	// Structures, with rules (sub-rules joined) and categories
	GetStructure(ctx context.Context, id string, companyID string) (Structure, error)

	// Batches
	CreateRun(ctx context.Context, run PayslipRun) (PayslipRun, error)
	GetRunByID(ctx context.Context, id string, companyID string) (PayslipRun, error)

	// Payslips; Create also stores worked days and inputs
	CreatePayslip(ctx context.Context, payslip Payslip) (Payslip, error)
	GetPayslipByID(ctx context.Context, id string, companyID string) (Payslip, error)
	UpdatePayslipState(ctx context.Context, id string, companyID string, state PayslipState) error
	ReplaceLines(ctx context.Context, payslipID string, companyID string, lines []ResultLine) error
	ToggleHideRule(ctx context.Context, payslipID string, companyID string) (int64, error)
	GetYearToDate(ctx context.Context, employeeID string, companyID string, year int, excludePayslipID string) (map[string]decimal.Decimal, error)
}
