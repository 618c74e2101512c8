package contract

import (
	"context"
	"time"
)

type ContractService interface {
	UpdateBase(ctx context.Context, id string) (SalaryBaseResponse, error)
	UpdateWage(ctx context.Context, req UpdateWageRequest) (SalaryBaseResponse, error)

	// Jobs
	RefreshAntiquity(ctx context.Context, today time.Time) (CronResult, error)
	ApplySalaryHistories(ctx context.Context, today time.Time) (CronResult, error)
}
