package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
)

type ContractServiceImpl struct {
	tx           database.Transactor
	contractRepo contract.ContractRepository
	calculator   SalaryBaseCalculator
}

func NewContractService(tx database.Transactor, contractRepo contract.ContractRepository) contract.ContractService {
	return &ContractServiceImpl{
		tx:           tx,
		contractRepo: contractRepo,
	}
}

// UpdateBase implements contract.ContractService.
func (s *ContractServiceImpl) UpdateBase(ctx context.Context, id string) (contract.SalaryBaseResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contract.SalaryBaseResponse{}, err
	}

	var resp contract.SalaryBaseResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ct, err := s.loadContract(ctx, id, companyID)
		if err != nil {
			return err
		}
		resp, err = s.recompute(ctx, ct)
		return err
	})
	return resp, err
}

// UpdateWage implements contract.ContractService.
func (s *ContractServiceImpl) UpdateWage(ctx context.Context, req contract.UpdateWageRequest) (contract.SalaryBaseResponse, error) {
	if err := req.Validate(); err != nil {
		return contract.SalaryBaseResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contract.SalaryBaseResponse{}, err
	}

	var resp contract.SalaryBaseResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ct, err := s.loadContract(ctx, req.ID, companyID)
		if err != nil {
			return err
		}
		if err := s.contractRepo.UpdateWage(ctx, ct.ID, companyID, req.Wage); err != nil {
			return fmt.Errorf("failed to update wage: %w", err)
		}
		ct.Wage = req.Wage
		resp, err = s.recompute(ctx, ct)
		return err
	})
	return resp, err
}

// RefreshAntiquity recomputes antiquity and the salary base of every open
// contract. Failures are logged and counted; the run goes on.
func (s *ContractServiceImpl) RefreshAntiquity(ctx context.Context, today time.Time) (contract.CronResult, error) {
	var result contract.CronResult

	companyIDs, err := s.contractRepo.ListCompanyIDsWithOpenContracts(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list companies: %w", err)
	}

	for _, companyID := range companyIDs {
		contracts, err := s.contractRepo.ListOpen(ctx, companyID)
		if err != nil {
			return result, fmt.Errorf("failed to list open contracts of company %s: %w", companyID, err)
		}

		for _, ct := range contracts {
			result.Processed++
			antiquity := ct.AntiquityAt(today)
			if antiquity == ct.Antiquity && ct.AllowanceCatalog == nil {
				continue
			}
			ct.Antiquity = antiquity

			resp, err := s.recompute(ctx, ct)
			if err != nil {
				result.Failed++
				slog.Error("Failed to refresh contract antiquity", "contract_id", ct.ID, "error", err)
				continue
			}
			if resp.Updated {
				result.Updated++
			}
		}
	}

	slog.Info("Contract antiquity refreshed", "processed", result.Processed, "updated", result.Updated, "failed", result.Failed)
	return result, nil
}

// ApplySalaryHistories pushes approved wage changes effective today into
// their contracts.
func (s *ContractServiceImpl) ApplySalaryHistories(ctx context.Context, today time.Time) (contract.CronResult, error) {
	var result contract.CronResult

	histories, err := s.contractRepo.ListDueSalaryHistories(ctx, today)
	if err != nil {
		return result, fmt.Errorf("failed to list due salary histories: %w", err)
	}

	for _, h := range histories {
		result.Processed++
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			return s.contractRepo.ApplySalaryHistory(ctx, h)
		})
		if err != nil {
			result.Failed++
			slog.Error("Failed to apply salary history", "salary_history_id", h.ID, "contract_id", h.ContractID, "error", err)
			continue
		}
		result.Updated++
	}

	slog.Info("Salary histories applied", "processed", result.Processed, "applied", result.Updated, "failed", result.Failed)
	return result, nil
}

func (s *ContractServiceImpl) loadContract(ctx context.Context, id, companyID string) (contract.Contract, error) {
	ct, err := s.contractRepo.GetByID(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, contract.ErrContractNotFound) {
			return contract.Contract{}, err
		}
		return contract.Contract{}, fmt.Errorf("failed to get contract: %w", err)
	}
	if ct.AllowanceCatalogID != nil && ct.AllowanceCatalog == nil {
		catalog, err := s.contractRepo.GetAllowanceCatalog(ctx, *ct.AllowanceCatalogID, companyID)
		if err != nil {
			return contract.Contract{}, fmt.Errorf("failed to get allowance catalog: %w", err)
		}
		ct.AllowanceCatalog = &catalog
	}
	return ct, nil
}

// recompute derives SDI/SBC and persists them together with antiquity.
// A contract without a matching catalog tier keeps its previous values.
func (s *ContractServiceImpl) recompute(ctx context.Context, ct contract.Contract) (contract.SalaryBaseResponse, error) {
	updated, ok := s.calculator.UpdateBase(ct)
	if !ok {
		slog.Debug("No allowance catalog tier applies, salary base unchanged", "contract_id", ct.ID, "antiquity", ct.Antiquity)
	}

	if err := s.contractRepo.UpdateBase(ctx, updated.ID, updated.CompanyID, updated.Antiquity, updated.SDI, updated.SBC); err != nil {
		return contract.SalaryBaseResponse{}, fmt.Errorf("failed to update salary base: %w", err)
	}

	return contract.SalaryBaseResponse{
		ContractID: updated.ID,
		Wage:       updated.Wage,
		Antiquity:  updated.Antiquity,
		SDI:        updated.SDI,
		SBC:        updated.SBC,
		Updated:    ok,
	}, nil
}
