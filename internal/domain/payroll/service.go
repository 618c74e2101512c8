package payroll

import (
	"context"
	"time"
)

type PayrollService interface {
	// Settings
	GetSettings(ctx context.Context) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsResponse, error)

	// Payslips
	GenerateBatch(ctx context.Context, req GenerateBatchRequest) (PayslipRunResponse, error)
	ComputePayslip(ctx context.Context, id string) (PayslipResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	ComputeContribution(ctx context.Context, id string, kind ContributionKind) (ContributionResponse, error)
	ToggleHideRule(ctx context.Context, id string) (PayslipResponse, error)

	// Used by settlements
	CreatePayslip(ctx context.Context, req CreatePayslipRequest) (PayslipResponse, error)
}

// InputProvider supplies the input lines generated by approved movements
// (loans, alimony, overtime) for an employee and period.
type InputProvider interface {
	InputsForPeriod(ctx context.Context, companyID string, employeeID string, dateFrom, dateTo time.Time) ([]InputLine, error)
}
