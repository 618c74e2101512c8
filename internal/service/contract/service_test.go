package contract

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
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

type fakeContractRepo struct {
	contracts map[string]contract.Contract
	catalogs  map[string]contract.AllowanceCatalog
	histories []contract.SalaryHistory
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{
		contracts: map[string]contract.Contract{},
		catalogs:  map[string]contract.AllowanceCatalog{},
	}
}

func (r *fakeContractRepo) GetByID(ctx context.Context, id string, companyID string) (contract.Contract, error) {
	c, ok := r.contracts[id]
	if !ok || c.CompanyID != companyID {
		return contract.Contract{}, contract.ErrContractNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) ListOpen(ctx context.Context, companyID string) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range r.contracts {
		if c.CompanyID == companyID && c.State == contract.StateOpen {
			if c.AllowanceCatalogID != nil {
				catalog := r.catalogs[*c.AllowanceCatalogID]
				c.AllowanceCatalog = &catalog
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContractRepo) ListOpenInPeriod(ctx context.Context, companyID string, dateFrom, dateTo time.Time) ([]contract.Contract, error) {
	return r.ListOpen(ctx, companyID)
}

func (r *fakeContractRepo) ListCompanyIDsWithOpenContracts(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, c := range r.contracts {
		if c.State == contract.StateOpen && !seen[c.CompanyID] {
			seen[c.CompanyID] = true
			out = append(out, c.CompanyID)
		}
	}
	return out, nil
}

func (r *fakeContractRepo) GetAllowanceCatalog(ctx context.Context, id string, companyID string) (contract.AllowanceCatalog, error) {
	c, ok := r.catalogs[id]
	if !ok {
		return contract.AllowanceCatalog{}, contract.ErrAllowanceCatalogNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) UpdateWage(ctx context.Context, id string, companyID string, wage decimal.Decimal) error {
	c := r.contracts[id]
	c.Wage = wage
	r.contracts[id] = c
	return nil
}

func (r *fakeContractRepo) UpdateBase(ctx context.Context, id string, companyID string, antiquity int, sdi, sbc decimal.Decimal) error {
	c := r.contracts[id]
	c.Antiquity = antiquity
	c.SDI = sdi
	c.SBC = sbc
	r.contracts[id] = c
	return nil
}

func (r *fakeContractRepo) CreateSalaryHistory(ctx context.Context, history contract.SalaryHistory) (contract.SalaryHistory, error) {
	history.ID = "history-" + history.ContractID
	r.histories = append(r.histories, history)
	return history, nil
}

func (r *fakeContractRepo) GetSalaryHistoryByIncrease(ctx context.Context, salaryIncreaseID string, companyID string) (contract.SalaryHistory, error) {
	for _, h := range r.histories {
		if h.SalaryIncreaseID != nil && *h.SalaryIncreaseID == salaryIncreaseID {
			return h, nil
		}
	}
	return contract.SalaryHistory{}, contract.ErrSalaryHistoryNotFound
}

func (r *fakeContractRepo) UpdateSalaryHistoryState(ctx context.Context, id string, companyID string, state contract.SalaryHistoryState) error {
	for i := range r.histories {
		if r.histories[i].ID == id {
			r.histories[i].State = state
			return nil
		}
	}
	return contract.ErrSalaryHistoryNotFound
}

func (r *fakeContractRepo) ApplySalaryHistory(ctx context.Context, history contract.SalaryHistory) error {
	c := r.contracts[history.ContractID]
	c.Wage = history.NewWage
	c.SDI = history.NewSDI
	c.SBC = history.NewSDI
	r.contracts[history.ContractID] = c
	return r.UpdateSalaryHistoryState(ctx, history.ID, history.CompanyID, contract.SalaryHistoryStateApplied)
}

func (r *fakeContractRepo) ListDueSalaryHistories(ctx context.Context, date time.Time) ([]contract.SalaryHistory, error) {
	var out []contract.SalaryHistory
	for _, h := range r.histories {
		if h.State == contract.SalaryHistoryStateApproved && h.DateApplied.Equal(date) {
			out = append(out, h)
		}
	}
	return out, nil
}

func authContext(t *testing.T, companyID string) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret-key-for-jwt", "1h")
	tokenString, _, err := svc.GenerateAccessToken("user-1", companyID, jwt.RolePayroll)
	require.NoError(t, err)
	token, err := svc.JWTAuth().Decode(tokenString)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func seedRepo() *fakeContractRepo {
	repo := newFakeContractRepo()
	catalogID := "catalog-1"
	first := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.catalogs[catalogID] = contract.AllowanceCatalog{ID: catalogID, CompanyID: "company-1", Lines: catalogLines()}
	repo.contracts["c1"] = contract.Contract{
		ID:                 "c1",
		CompanyID:          "company-1",
		EmployeeID:         "emp-1",
		Wage:               dec("500"),
		Antiquity:          0,
		FirstContractDate:  &first,
		AllowanceCatalogID: &catalogID,
		State:              contract.StateOpen,
	}
	return repo
}

func TestContractService_UpdateWage(t *testing.T) {
	repo := seedRepo()
	svc := NewContractService(passthroughTx{}, repo)
	ctx := authContext(t, "company-1")

	resp, err := svc.UpdateWage(ctx, contract.UpdateWageRequest{ID: "c1", Wage: dec("1000")})
	require.NoError(t, err)
	assert.True(t, resp.Updated)

	// Tier t1: 1 + round(15/365, 4) + round(12×0.25/365, 4) = 1 + 0.0411 + 0.0082
	assert.True(t, resp.SDI.Equal(dec("1049.3")), "sdi = %s", resp.SDI)
	assert.True(t, repo.contracts["c1"].Wage.Equal(dec("1000")))
	assert.True(t, repo.contracts["c1"].SBC.Equal(dec("1049.3")))
}

func TestContractService_UpdateWage_Invalid(t *testing.T) {
	svc := NewContractService(passthroughTx{}, seedRepo())
	ctx := authContext(t, "company-1")

	_, err := svc.UpdateWage(ctx, contract.UpdateWageRequest{ID: "c1", Wage: decimal.Zero})
	assert.Error(t, err)
}

func TestContractService_UpdateBase_OtherCompany(t *testing.T) {
	svc := NewContractService(passthroughTx{}, seedRepo())
	ctx := authContext(t, "company-2")

	_, err := svc.UpdateBase(ctx, "c1")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
}

func TestContractService_RefreshAntiquity(t *testing.T) {
	repo := seedRepo()
	svc := NewContractService(passthroughTx{}, repo)

	today := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.RefreshAntiquity(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Updated)

	c := repo.contracts["c1"]
	assert.Equal(t, 7, c.Antiquity)
	// Antiquity 7 falls in tier t10: 1 + 0.0411 + round(20×0.25/365, 4) = 1.0548
	assert.True(t, c.SDI.Equal(dec("527.4")), "sdi = %s", c.SDI)
}

func TestContractService_ApplySalaryHistories(t *testing.T) {
	repo := seedRepo()
	today := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	repo.histories = []contract.SalaryHistory{
		{ID: "h1", CompanyID: "company-1", ContractID: "c1", DateApplied: today, NewWage: dec("600"), NewSDI: dec("629.58"), State: contract.SalaryHistoryStateApproved},
		{ID: "h2", CompanyID: "company-1", ContractID: "c1", DateApplied: today.AddDate(0, 0, 1), NewWage: dec("700"), State: contract.SalaryHistoryStateApproved},
	}
	svc := NewContractService(passthroughTx{}, repo)

	result, err := svc.ApplySalaryHistories(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	c := repo.contracts["c1"]
	assert.True(t, c.Wage.Equal(dec("600")))
	assert.True(t, c.SDI.Equal(dec("629.58")))
	assert.Equal(t, contract.SalaryHistoryStateApplied, repo.histories[0].State)
	assert.Equal(t, contract.SalaryHistoryStateApproved, repo.histories[1].State)
}
