package cron

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContractService struct {
	contract.ContractService
	calls    []string
	dates    []time.Time
	applyErr error
}

func (f *fakeContractService) RefreshAntiquity(ctx context.Context, today time.Time) (contract.CronResult, error) {
	f.calls = append(f.calls, "refresh")
	f.dates = append(f.dates, today)
	return contract.CronResult{}, nil
}

func (f *fakeContractService) ApplySalaryHistories(ctx context.Context, today time.Time) (contract.CronResult, error) {
	f.calls = append(f.calls, "apply")
	f.dates = append(f.dates, today)
	return contract.CronResult{}, f.applyErr
}

func TestContractJobs_RunOnce(t *testing.T) {
	mexico, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	svc := &fakeContractService{}
	jobs := NewContractJobs(svc, mexico)
	// 03:30 UTC on the 2nd is still the 1st in Mexico City.
	jobs.now = func() time.Time { return time.Date(2024, time.February, 2, 3, 30, 0, 0, time.UTC) }

	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler, 24*time.Hour)

	require.NoError(t, scheduler.RunOnce(context.Background()))
	assert.Equal(t, []string{"apply", "refresh"}, svc.calls)
	for _, d := range svc.dates {
		assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), d)
	}
}

func TestScheduler_RunOnceJoinsFailures(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeContractService{applyErr: boom}
	jobs := NewContractJobs(svc, nil)

	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler, time.Hour)

	err := scheduler.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "apply_salary_histories")
	assert.Equal(t, []string{"apply", "refresh"}, svc.calls)
}

func TestScheduler_StartStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	scheduler := NewScheduler()
	scheduler.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	scheduler.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	scheduler.Stop()
}
