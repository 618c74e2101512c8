package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ========== FAKES ==========

type fakePayrollRepo struct {
	settings   map[string]payroll.Settings
	structures map[string]payroll.Structure
	runs       map[string]payroll.PayslipRun
	payslips   map[string]payroll.Payslip
	ytd        map[string]decimal.Decimal

	replaceCalls int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		settings:   map[string]payroll.Settings{},
		structures: map[string]payroll.Structure{},
		runs:       map[string]payroll.PayslipRun{},
		payslips:   map[string]payroll.Payslip{},
	}
}

func (r *fakePayrollRepo) GetSettings(ctx context.Context, companyID string) (payroll.Settings, error) {
	s, ok := r.settings[companyID]
	if !ok {
		return payroll.Settings{}, payroll.ErrSettingsNotFound
	}
	return s, nil
}

func (r *fakePayrollRepo) UpsertSettings(ctx context.Context, settings payroll.Settings) (payroll.Settings, error) {
	r.settings[settings.CompanyID] = settings
	return settings, nil
}

func (r *fakePayrollRepo) GetStructure(ctx context.Context, id string, companyID string) (payroll.Structure, error) {
	s, ok := r.structures[id]
	if !ok {
		return payroll.Structure{}, payroll.ErrStructureNotFound
	}
	return s, nil
}

func (r *fakePayrollRepo) CreateRun(ctx context.Context, run payroll.PayslipRun) (payroll.PayslipRun, error) {
	r.runs[run.ID] = run
	return run, nil
}

func (r *fakePayrollRepo) GetRunByID(ctx context.Context, id string, companyID string) (payroll.PayslipRun, error) {
	run, ok := r.runs[id]
	if !ok {
		return payroll.PayslipRun{}, payroll.ErrPayslipRunNotFound
	}
	return run, nil
}

func (r *fakePayrollRepo) CreatePayslip(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, error) {
	r.payslips[payslip.ID] = payslip
	return payslip, nil
}

func (r *fakePayrollRepo) GetPayslipByID(ctx context.Context, id string, companyID string) (payroll.Payslip, error) {
	p, ok := r.payslips[id]
	if !ok || p.CompanyID != companyID {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	p.Contract = nil
	p.Employee = nil
	return p, nil
}

func (r *fakePayrollRepo) UpdatePayslipState(ctx context.Context, id string, companyID string, state payroll.PayslipState) error {
	p := r.payslips[id]
	p.State = state
	r.payslips[id] = p
	return nil
}

func (r *fakePayrollRepo) ReplaceLines(ctx context.Context, payslipID string, companyID string, lines []payroll.ResultLine) error {
	r.replaceCalls++
	p := r.payslips[payslipID]
	p.Lines = append([]payroll.ResultLine(nil), lines...)
	r.payslips[payslipID] = p
	return nil
}

func (r *fakePayrollRepo) ToggleHideRule(ctx context.Context, payslipID string, companyID string) (int64, error) {
	p := r.payslips[payslipID]
	var n int64
	for i := range p.Lines {
		if p.Lines[i].Hideable {
			p.Lines[i].HideRule = !p.Lines[i].HideRule
			n++
		}
	}
	r.payslips[payslipID] = p
	return n, nil
}

func (r *fakePayrollRepo) GetYearToDate(ctx context.Context, employeeID string, companyID string, year int, excludePayslipID string) (map[string]decimal.Decimal, error) {
	return r.ytd, nil
}

type fakeContractRepo struct {
	contract.ContractRepository
	contracts map[string]contract.Contract
}

func (r *fakeContractRepo) GetByID(ctx context.Context, id string, companyID string) (contract.Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return contract.Contract{}, contract.ErrContractNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) ListOpenInPeriod(ctx context.Context, companyID string, dateFrom, dateTo time.Time) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range r.contracts {
		if c.CompanyID == companyID && c.State == contract.StateOpen {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
	registers map[string]employee.EmployerRegister
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByIDs(ctx context.Context, ids []string, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) GetEmployerRegister(ctx context.Context, id string, companyID string) (employee.EmployerRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return employee.EmployerRegister{}, employee.ErrEmployerRegisterNotFound
	}
	return reg, nil
}

type fakeInputs struct {
	lines map[string][]payroll.InputLine
}

func (f fakeInputs) InputsForPeriod(ctx context.Context, companyID string, employeeID string, dateFrom, dateTo time.Time) ([]payroll.InputLine, error) {
	return f.lines[employeeID], nil
}

type memoryCache struct {
	entries     map[string]payroll.Settings
	invalidated []string
}

func (c *memoryCache) Get(ctx context.Context, companyID string) (payroll.Settings, bool) {
	s, ok := c.entries[companyID]
	return s, ok
}

func (c *memoryCache) Set(ctx context.Context, settings payroll.Settings) {
	c.entries[settings.CompanyID] = settings
}

func (c *memoryCache) Invalidate(ctx context.Context, companyID string) {
	delete(c.entries, companyID)
	c.invalidated = append(c.invalidated, companyID)
}

// ========== FIXTURE ==========

type serviceFixture struct {
	svc       payroll.PayrollService
	payroll   *fakePayrollRepo
	contracts *fakeContractRepo
	employees *fakeEmployeeRepo
	cache     *memoryCache
}

func newServiceFixture() *serviceFixture {
	ct := testContract()
	emp := testEmployee()

	f := &serviceFixture{
		payroll:   newFakePayrollRepo(),
		contracts: &fakeContractRepo{contracts: map[string]contract.Contract{ct.ID: ct}},
		employees: &fakeEmployeeRepo{employees: map[string]employee.Employee{emp.ID: emp}},
		cache:     &memoryCache{entries: map[string]payroll.Settings{}},
	}
	f.payroll.settings[testCompanyID] = testSettings()
	f.payroll.structures["structure-1"] = weeklyStructure()

	inputs := fakeInputs{lines: map[string][]payroll.InputLine{
		emp.ID: {{Code: "HE2", Name: "Double hours", Amount: dec("120"), Source: payroll.InputSourceExtratime}},
	}}

	f.svc = NewPayrollService(passthroughTx{}, f.payroll, f.contracts, f.employees, inputs, f.cache)
	return f
}

func authContext(t *testing.T) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret", "15m")
	token, _, err := svc.GenerateAccessToken("user-1", testCompanyID, jwt.RolePayroll)
	require.NoError(t, err)
	parsed, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), parsed, nil)
}

func batchRequest() payroll.GenerateBatchRequest {
	return payroll.GenerateBatchRequest{
		Name:        "Week 1",
		DateFrom:    "2024-01-01",
		DateTo:      "2024-01-07",
		StructureID: "structure-1",
		PeriodType:  string(payroll.PeriodTypeWeekly),
	}
}

// ========== TESTS ==========

func TestGenerateBatch(t *testing.T) {
	f := newServiceFixture()
	ctx := authContext(t)

	run, err := f.svc.GenerateBatch(ctx, batchRequest())
	require.NoError(t, err)

	assert.Equal(t, "Week 1", run.Name)
	assert.Equal(t, "2024-01-01", run.DateFrom)
	require.Len(t, run.Payslips, 1)

	slip := run.Payslips[0]
	assert.Equal(t, string(payroll.PayslipStateVerify), slip.State)
	assert.Equal(t, "Week 1 - E001 Ana López", slip.Name)
	require.Len(t, slip.WorkedDays, 1)
	assert.Equal(t, payroll.WorkedDaysAttendance, slip.WorkedDays[0].Code)
	assertDec(t, "7", slip.WorkedDays[0].NumberOfDays)
	require.Len(t, slip.Inputs, 1)
	assert.Equal(t, "HE2", slip.Inputs[0].Code)

	assert.Len(t, slip.Lines, 5)
	assertDec(t, "3500", slip.Totals.AmountSubtotal)
	assertDec(t, "3115.22", slip.Totals.AmountTotal)
	assert.Equal(t, "P208W", slip.Antiquity)

	stored := f.payroll.payslips[slip.ID]
	assert.Equal(t, payroll.PayslipStateVerify, stored.State)
	assert.Len(t, stored.Lines, 5)
	for _, l := range stored.Lines {
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, slip.ID, l.PayslipID)
	}
}

func TestGenerateBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *serviceFixture)
		req     func() payroll.GenerateBatchRequest
		wantErr error
	}{
		{
			name:    "no open contracts",
			setup:   func(f *serviceFixture) { f.contracts.contracts = map[string]contract.Contract{} },
			wantErr: payroll.ErrNoContractsInPeriod,
		},
		{
			name:    "settings missing",
			setup:   func(f *serviceFixture) { delete(f.payroll.settings, testCompanyID) },
			wantErr: payroll.ErrConfiguration,
		},
		{
			name:    "unknown structure",
			setup:   func(f *serviceFixture) {},
			req:     func() payroll.GenerateBatchRequest { r := batchRequest(); r.StructureID = "nope"; return r },
			wantErr: payroll.ErrStructureNotFound,
		},
		{
			name: "failing rule aborts batch",
			setup: func(f *serviceFixture) {
				s := weeklyStructure()
				s.Rules = append(s.Rules, codeRule(500, "BAD", payroll.CategoryAllowance, "undefined_name"))
				f.payroll.structures["structure-1"] = s
			},
			wantErr: payroll.ErrRuleEvaluation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			tt.setup(f)
			req := batchRequest()
			if tt.req != nil {
				req = tt.req()
			}

			_, err := f.svc.GenerateBatch(authContext(t), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateBatch_InvalidRequest(t *testing.T) {
	f := newServiceFixture()
	req := batchRequest()
	req.DateTo = "2023-12-31"

	_, err := f.svc.GenerateBatch(authContext(t), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_to")
}

func TestComputePayslip_Recompute(t *testing.T) {
	f := newServiceFixture()
	ctx := authContext(t)

	run, err := f.svc.GenerateBatch(ctx, batchRequest())
	require.NoError(t, err)
	id := run.Payslips[0].ID

	again, err := f.svc.ComputePayslip(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 2, f.payroll.replaceCalls)
	assert.Len(t, f.payroll.payslips[id].Lines, 5)
	assert.True(t, again.Totals.AmountTotal.Equal(run.Payslips[0].Totals.AmountTotal))
}

func TestComputePayslip_NotEditable(t *testing.T) {
	for _, state := range []payroll.PayslipState{payroll.PayslipStateDone, payroll.PayslipStateCancel} {
		t.Run(string(state), func(t *testing.T) {
			f := newServiceFixture()
			slip := testSlip()
			slip.State = state
			f.payroll.payslips[slip.ID] = slip

			_, err := f.svc.ComputePayslip(authContext(t), slip.ID)
			assert.ErrorIs(t, err, payroll.ErrPayslipNotEditable)
			assert.Zero(t, f.payroll.replaceCalls)
		})
	}
}

func TestComputeContribution_UsesCachedSettings(t *testing.T) {
	f := newServiceFixture()
	slip := testSlip()
	f.payroll.payslips[slip.ID] = slip

	cached := testSettings()
	cached.UMA = dec("50")
	f.cache.entries[testCompanyID] = cached

	resp, err := f.svc.ComputeContribution(authContext(t), slip.ID, payroll.ContributionEmployee)
	require.NoError(t, err)
	// Cap is 1250, excess starts at 150.
	assertDec(t, "525", resp.BaseCal)
	assertDec(t, "375", resp.ExcessBase)
}

func TestComputeContribution(t *testing.T) {
	f := newServiceFixture()
	slip := testSlip()
	f.payroll.payslips[slip.ID] = slip

	resp, err := f.svc.ComputeContribution(authContext(t), slip.ID, payroll.ContributionCompany)
	require.NoError(t, err)

	assert.Equal(t, "company", resp.Kind)
	assertDec(t, "718.50", resp.Amount)
	assertDec(t, "525", resp.BaseCal)
	assertDec(t, "225", resp.ExcessBase)
	assertDec(t, "7", resp.FullDays)

	_, err = f.svc.ComputeContribution(authContext(t), slip.ID, "pension")
	assert.ErrorIs(t, err, payroll.ErrConfiguration)
}

func TestToggleHideRule(t *testing.T) {
	f := newServiceFixture()
	slip := testSlip()
	slip.Lines = []payroll.ResultLine{
		{Code: "P001", CategoryCode: payroll.CategoryAllowance, Hideable: true, HideRule: true},
		{Code: "D001", CategoryCode: payroll.CategoryDeduction},
	}
	f.payroll.payslips[slip.ID] = slip

	resp, err := f.svc.ToggleHideRule(authContext(t), slip.ID)
	require.NoError(t, err)
	require.Len(t, resp.Lines, 2)
	assert.False(t, resp.Lines[0].HideRule)
	assert.False(t, resp.Lines[1].HideRule)

	resp, err = f.svc.ToggleHideRule(authContext(t), slip.ID)
	require.NoError(t, err)
	assert.True(t, resp.Lines[0].HideRule)
}

func TestGetPayslip_NotFound(t *testing.T) {
	f := newServiceFixture()
	_, err := f.svc.GetPayslip(authContext(t), "missing")
	assert.ErrorIs(t, err, payroll.ErrPayslipNotFound)
}

func TestCreatePayslip_StaysDraft(t *testing.T) {
	f := newServiceFixture()

	resp, err := f.svc.CreatePayslip(authContext(t), payroll.CreatePayslipRequest{
		Name:        "Settlement Ana",
		EmployeeID:  "employee-1",
		ContractID:  "contract-1",
		StructureID: "structure-1",
		DateFrom:    date(2024, time.March, 1),
		DateTo:      date(2024, time.March, 15),
		PeriodType:  payroll.PeriodTypeBiweekly,
		Inputs: []payroll.InputLine{
			{Code: "PTU", Name: "Profit sharing", Amount: dec("1000"), Source: payroll.InputSourcePTU},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, string(payroll.PayslipStateDraft), resp.State)
	assert.Empty(t, resp.Lines)
	require.Len(t, resp.WorkedDays, 1)
	assertDec(t, "15", resp.WorkedDays[0].NumberOfDays)
	assert.Zero(t, f.payroll.replaceCalls)
}

func TestCreatePayslip_InvalidPeriod(t *testing.T) {
	f := newServiceFixture()
	_, err := f.svc.CreatePayslip(authContext(t), payroll.CreatePayslipRequest{
		EmployeeID: "employee-1",
		ContractID: "contract-1",
		DateFrom:   date(2024, time.March, 15),
		DateTo:     date(2024, time.March, 1),
	})
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestSettings(t *testing.T) {
	f := newServiceFixture()
	ctx := authContext(t)
	f.cache.entries[testCompanyID] = testSettings()

	uma := dec("108.57")
	resp, err := f.svc.UpdateSettings(ctx, payroll.UpdateSettingsRequest{UMA: &uma})
	require.NoError(t, err)
	assertDec(t, "108.57", resp.UMA)
	assert.Equal(t, []string{testCompanyID}, f.cache.invalidated)
	_, cached := f.cache.entries[testCompanyID]
	assert.False(t, cached)

	got, err := f.svc.GetSettings(ctx)
	require.NoError(t, err)
	assertDec(t, "108.57", got.UMA)
}

func TestSettings_Defaults(t *testing.T) {
	f := newServiceFixture()
	delete(f.payroll.settings, testCompanyID)

	got, err := f.svc.GetSettings(authContext(t))
	require.NoError(t, err)
	assert.True(t, got.UMA.IsZero())
	assertDec(t, "5", got.Rates.Infonavit)
	assert.Len(t, got.ISRTables[payroll.PeriodTypeWeekly], 11)
	assert.Len(t, got.SubsidyTables[payroll.PeriodTypeMonthly], 11)

	// Defaults alone are not a usable configuration.
	_, err = f.svc.UpdateSettings(authContext(t), payroll.UpdateSettingsRequest{})
	assert.True(t, errors.Is(err, payroll.ErrConfiguration))
}

func TestDefaultWorkedDays_ClipsToContract(t *testing.T) {
	ct := testContract()
	ct.DateStart = date(2024, time.January, 4)
	end := date(2024, time.January, 6)
	ct.DateEnd = &end

	days := defaultWorkedDays(ct, date(2024, time.January, 1), date(2024, time.January, 7))
	require.Len(t, days, 1)
	assertDec(t, "3", days[0].NumberOfDays)
	assertDec(t, "24", days[0].NumberOfHours)
}
