package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
)

// ContractJobs keeps contracts current: antiquity and salary base are
// recomputed daily and approved salary increases take effect on their date.
type ContractJobs struct {
	contractSvc contract.ContractService
	location    *time.Location
	now         func() time.Time
}

func NewContractJobs(contractSvc contract.ContractService, location *time.Location) *ContractJobs {
	if location == nil {
		location = time.UTC
	}
	return &ContractJobs{
		contractSvc: contractSvc,
		location:    location,
		now:         time.Now,
	}
}

func (j *ContractJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("apply_salary_histories", interval, j.ApplySalaryHistories)
	scheduler.AddJob("refresh_contract_antiquity", interval, j.RefreshAntiquity)
}

// today is the current calendar date in the payroll timezone, as a UTC
// midnight so it compares with DATE columns.
func (j *ContractJobs) today() time.Time {
	t := j.now().In(j.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (j *ContractJobs) RefreshAntiquity(ctx context.Context) error {
	_, err := j.contractSvc.RefreshAntiquity(ctx, j.today())
	return err
}

func (j *ContractJobs) ApplySalaryHistories(ctx context.Context) error {
	_, err := j.contractSvc.ApplySalaryHistories(ctx, j.today())
	return err
}
