package movement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/movement"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	contractsvc "github.com/cmlabs-hris/payroll-mx/internal/service/contract"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// PayslipCreator creates the separation payslip of an approved settlement.
type PayslipCreator interface {
	CreatePayslip(ctx context.Context, req payroll.CreatePayslipRequest) (payroll.PayslipResponse, error)
}

// SettingsReader reads the company payroll settings.
type SettingsReader interface {
	GetSettings(ctx context.Context, companyID string) (payroll.Settings, error)
}

type MovementServiceImpl struct {
	tx           database.Transactor
	movementRepo movement.MovementRepository
	contractRepo contract.ContractRepository
	settings     SettingsReader
	payslips     PayslipCreator
	calculator   contractsvc.SalaryBaseCalculator
}

func NewMovementService(
	tx database.Transactor,
	movementRepo movement.MovementRepository,
	contractRepo contract.ContractRepository,
	settings SettingsReader,
	payslips PayslipCreator,
) movement.MovementService {
	return &MovementServiceImpl{
		tx:           tx,
		movementRepo: movementRepo,
		contractRepo: contractRepo,
		settings:     settings,
		payslips:     payslips,
	}
}

// ========== CREATE ==========

func (s *MovementServiceImpl) CreateLoan(ctx context.Context, req movement.CreateLoanRequest) (movement.MovementResponse, error) {
	if err := req.Validate(); err != nil {
		return movement.MovementResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	dateStart, _ := time.Parse(dateLayout, req.DateStart)
	loan := movement.Loan{
		CompanyID:   companyID,
		EmployeeID:  req.EmployeeID,
		Name:        "Loan " + req.DateStart,
		DateStart:   dateStart,
		DateEnd:     parseOptionalDate(req.DateEnd),
		TotalAmount: req.TotalAmount,
		TotalPaid:   decimal.Zero,
		Amount:      req.Amount,
		Periods:     req.Periods,
		InputCode:   req.InputCode,
		Note:        req.Note,
		State:       movement.StateDraft,
	}

	created, err := s.movementRepo.CreateLoan(ctx, loan)
	if err != nil {
		return movement.MovementResponse{}, fmt.Errorf("failed to create loan: %w", err)
	}
	return loanResponse(created), nil
}

func (s *MovementServiceImpl) CreateAlimony(ctx context.Context, req movement.CreateAlimonyRequest) (movement.MovementResponse, error) {
	if err := req.Validate(); err != nil {
		return movement.MovementResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	dateStart, _ := time.Parse(dateLayout, req.DateStart)
	alimony := movement.Alimony{
		CompanyID:   companyID,
		EmployeeID:  req.EmployeeID,
		Name:        "Alimony " + req.Proceeding,
		DateStart:   dateStart,
		DateEnd:     parseOptionalDate(req.DateEnd),
		Proceeding:  req.Proceeding,
		Folio:       req.Folio,
		Beneficiary: req.Beneficiary,
		Amount:      req.Amount,
		AmountType:  movement.AlimonyAmountType(req.AmountType),
		InputCode:   req.InputCode,
		Note:        req.Note,
		State:       movement.StateDraft,
	}

	created, err := s.movementRepo.CreateAlimony(ctx, alimony)
	if err != nil {
		return movement.MovementResponse{}, fmt.Errorf("failed to create alimony: %w", err)
	}
	return alimonyResponse(created), nil
}

func (s *MovementServiceImpl) CreateSettlement(ctx context.Context, req movement.CreateSettlementRequest) (movement.MovementResponse, error) {
	if err := req.Validate(); err != nil {
		return movement.MovementResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	ct, err := s.contractRepo.GetByID(ctx, req.ContractID, companyID)
	if err != nil {
		return movement.MovementResponse{}, err
	}
	if ct.EmployeeID != req.EmployeeID {
		return movement.MovementResponse{}, contract.ErrContractNotFound
	}

	cDateStart, _ := time.Parse(dateLayout, req.CDateStart)
	cDateEnd, _ := time.Parse(dateLayout, req.CDateEnd)
	reason := movement.DismissalReason(req.ReasonForDismissal)
	settlementType := movement.ClassifySettlement(reason)

	settlement := movement.Settlement{
		CompanyID:          companyID,
		EmployeeID:         req.EmployeeID,
		ContractID:         ct.ID,
		Name:               fmt.Sprintf("%s %s", settlementTitle(settlementType), req.CDateEnd),
		DateStart:          &ct.DateStart,
		DateEnd:            ct.DateEnd,
		ReasonForDismissal: reason,
		SettlementType:     settlementType,
		CDateStart:         cDateStart,
		CDateEnd:           cDateEnd,
		PaymentDay:         parseOptionalDate(req.PaymentDay),
		Notes:              req.Notes,
		State:              movement.StateDraft,
	}

	created, err := s.movementRepo.CreateSettlement(ctx, settlement)
	if err != nil {
		return movement.MovementResponse{}, fmt.Errorf("failed to create settlement: %w", err)
	}
	return settlementResponse(created), nil
}

func (s *MovementServiceImpl) CreatePTUProcess(ctx context.Context, req movement.CreatePTUProcessRequest) (movement.MovementResponse, error) {
	if err := req.Validate(); err != nil {
		return movement.MovementResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	date, _ := time.Parse(dateLayout, req.Date)
	created, err := s.movementRepo.CreatePTUProcess(ctx, movement.PTUProcess{
		CompanyID:     companyID,
		Name:          req.Name,
		Date:          date,
		AmountToShare: req.AmountToShare,
		StructureID:   req.StructureID,
		Note:          req.Note,
		State:         movement.StateDraft,
	})
	if err != nil {
		return movement.MovementResponse{}, fmt.Errorf("failed to create PTU process: %w", err)
	}
	return ptuResponse(created), nil
}

func (s *MovementServiceImpl) CreateExtratime(ctx context.Context, req movement.CreateExtratimeRequest) (movement.MovementResponse, error) {
	if err := req.Validate(); err != nil {
		return movement.MovementResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	dateFrom, _ := time.Parse(dateLayout, req.DateFrom)
	dateTo, _ := time.Parse(dateLayout, req.DateTo)

	lines := make([]movement.ExtratimeLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		d, _ := time.Parse(dateLayout, l.Date)
		lines = append(lines, movement.ExtratimeLine{
			Date:     d,
			Hours:    l.Hours,
			TypeHour: movement.HourType(l.TypeHour),
			State:    movement.StateDraft,
		})
	}

	created, err := s.movementRepo.CreateExtratime(ctx, movement.Extratime{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		ContractID: req.ContractID,
		Name:       fmt.Sprintf("Overtime %s - %s", req.DateFrom, req.DateTo),
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		Notes:      req.Notes,
		State:      movement.StateDraft,
		Lines:      lines,
	})
	if err != nil {
		return movement.MovementResponse{}, fmt.Errorf("failed to create extratime: %w", err)
	}
	return extratimeResponse(created), nil
}

// CreateSalaryIncrease captures the current wage and SDI of the contract
// and derives the SDI the new wage will have.
func (s *MovementServiceImpl) CreateSalaryIncrease(ctx context.Context, req movement.CreateSalaryIncreaseRequest) (movement.MovementResponse, error) {
	if err := req.Validate(); err != nil {
		return movement.MovementResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	ct, err := s.contractRepo.GetByID(ctx, req.ContractID, companyID)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	newSDI := ct.SDI
	if ct.AllowanceCatalogID != nil {
		catalog, err := s.contractRepo.GetAllowanceCatalog(ctx, *ct.AllowanceCatalogID, companyID)
		if err != nil {
			return movement.MovementResponse{}, fmt.Errorf("failed to get allowance catalog: %w", err)
		}
		if base, ok := s.calculator.Compute(req.NewWage, ct.Antiquity, catalog.Lines); ok {
			newSDI = base.SDI
		}
	}

	dateApply, _ := time.Parse(dateLayout, req.DateApply)
	created, err := s.movementRepo.CreateSalaryIncrease(ctx, movement.SalaryIncrease{
		CompanyID:   companyID,
		EmployeeID:  ct.EmployeeID,
		ContractID:  ct.ID,
		Name:        fmt.Sprintf("Salary increase %s", req.DateApply),
		DateApply:   dateApply,
		CurrentWage: ct.Wage,
		CurrentSDI:  ct.SDI,
		NewWage:     req.NewWage,
		NewSDI:      newSDI,
		Notes:       req.Notes,
		State:       movement.StateDraft,
	})
	if err != nil {
		return movement.MovementResponse{}, fmt.Errorf("failed to create salary increase: %w", err)
	}
	return salaryIncreaseResponse(created), nil
}

// ========== STATE ==========

// Transition applies action to the movement and runs the side effects of
// its kind: extratime lines follow the sheet, an approved settlement gets
// its payslip and a salary increase keeps its salary history in step.
func (s *MovementServiceImpl) Transition(ctx context.Context, kind movement.Kind, id string, action movement.Action) (movement.MovementResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return movement.MovementResponse{}, err
	}

	var resp movement.MovementResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.movementRepo.GetState(ctx, kind, id, companyID)
		if err != nil {
			return err
		}
		if kind == movement.KindSalaryIncrease {
			if current == movement.StateApplied {
				return movement.ErrSalaryIncreaseApplied
			}
			if action == movement.ActionDone {
				return movement.ErrActionNotSupported
			}
		}

		target, err := action.Target(current)
		if err != nil {
			return err
		}

		switch kind {
		case movement.KindExtratime:
			err = s.onExtratime(ctx, id, companyID, target)
		case movement.KindSettlement:
			err = s.onSettlement(ctx, id, companyID, target)
		case movement.KindSalaryIncrease:
			err = s.onSalaryIncrease(ctx, id, companyID, target)
		}
		if err != nil {
			return err
		}

		if err := s.movementRepo.UpdateState(ctx, kind, id, companyID, target); err != nil {
			return fmt.Errorf("failed to update %s state: %w", kind, err)
		}

		resp, err = s.describe(ctx, kind, id, companyID)
		return err
	})
	if err != nil {
		return movement.MovementResponse{}, err
	}

	slog.Info("Movement state changed", "kind", kind, "id", id, "action", action, "state", resp.State)
	return resp, nil
}

// Delete removes a movement. Only drafts can be deleted.
func (s *MovementServiceImpl) Delete(ctx context.Context, kind movement.Kind, id string) error {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		state, err := s.movementRepo.GetState(ctx, kind, id, companyID)
		if err != nil {
			return err
		}
		if state != movement.StateDraft {
			return movement.ErrDeleteNotDraft
		}
		return s.movementRepo.Delete(ctx, kind, id, companyID)
	})
}

func (s *MovementServiceImpl) onExtratime(ctx context.Context, id, companyID string, target movement.State) error {
	if target == movement.StateApproved {
		sheet, err := s.movementRepo.GetExtratime(ctx, id, companyID)
		if err != nil {
			return err
		}
		for _, line := range sheet.Lines {
			if line.Date.Before(sheet.DateFrom) || line.Date.After(sheet.DateTo) {
				return movement.ErrExtratimeOutOfPeriod
			}
		}
	}
	return s.movementRepo.UpdateExtratimeLinesState(ctx, id, companyID, target)
}

// onSettlement creates the separation payslip on approval, computed with
// the structure configured for the settlement type and contract structure.
func (s *MovementServiceImpl) onSettlement(ctx context.Context, id, companyID string, target movement.State) error {
	if target != movement.StateApproved {
		return nil
	}

	settlement, err := s.movementRepo.GetSettlement(ctx, id, companyID)
	if err != nil {
		return err
	}
	if settlement.SettlementType == movement.SettlementTypeUndefined {
		return movement.ErrUndefinedSettlement
	}
	if settlement.PayslipID != nil {
		return nil
	}

	ct, err := s.contractRepo.GetByID(ctx, settlement.ContractID, companyID)
	if err != nil {
		return err
	}

	settings, err := s.settings.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrSettingsNotFound) {
			return &payroll.ConfigurationError{Record: "company " + companyID, Field: "settlement_structures", Message: "payroll settings are not configured"}
		}
		return err
	}
	structureID, err := settings.SettlementStructureID(string(settlement.SettlementType), string(ct.StructureType))
	if err != nil {
		return err
	}

	periodType := payroll.PeriodType(ct.PeriodType)
	if periodType == "" {
		periodType = payroll.PeriodTypeWeekly
	}

	slip, err := s.payslips.CreatePayslip(ctx, payroll.CreatePayslipRequest{
		Name:        settlement.Name,
		EmployeeID:  settlement.EmployeeID,
		ContractID:  settlement.ContractID,
		StructureID: structureID,
		DateFrom:    settlement.CDateStart,
		DateTo:      settlement.CDateEnd,
		PaymentDay:  settlement.PaymentDay,
		PeriodType:  periodType,
	})
	if err != nil {
		return fmt.Errorf("failed to create settlement payslip: %w", err)
	}

	return s.movementRepo.SetSettlementPayslip(ctx, id, companyID, structureID, slip.ID)
}

// onSalaryIncrease writes an approved salary history on approval and
// moves an existing one along on cancel or back to draft.
func (s *MovementServiceImpl) onSalaryIncrease(ctx context.Context, id, companyID string, target movement.State) error {
	history, err := s.contractRepo.GetSalaryHistoryByIncrease(ctx, id, companyID)
	if err != nil && !errors.Is(err, contract.ErrSalaryHistoryNotFound) {
		return err
	}
	exists := err == nil

	switch target {
	case movement.StateApproved:
		if exists {
			return s.contractRepo.UpdateSalaryHistoryState(ctx, history.ID, companyID, contract.SalaryHistoryStateApproved)
		}
		increase, err := s.movementRepo.GetSalaryIncrease(ctx, id, companyID)
		if err != nil {
			return err
		}
		increaseID := increase.ID
		created, err := s.contractRepo.CreateSalaryHistory(ctx, contract.SalaryHistory{
			CompanyID:        companyID,
			ContractID:       increase.ContractID,
			EmployeeID:       increase.EmployeeID,
			SalaryIncreaseID: &increaseID,
			DateApplied:      increase.DateApply,
			OlderWage:        increase.CurrentWage,
			OlderSDI:         increase.CurrentSDI,
			NewWage:          increase.NewWage,
			NewSDI:           increase.NewSDI,
			State:            contract.SalaryHistoryStateApproved,
		})
		if err != nil {
			return fmt.Errorf("failed to create salary history: %w", err)
		}
		return s.movementRepo.SetSalaryIncreaseHistory(ctx, id, companyID, created.ID)
	case movement.StateCancel:
		if exists {
			return s.contractRepo.UpdateSalaryHistoryState(ctx, history.ID, companyID, contract.SalaryHistoryStateCancel)
		}
	case movement.StateDraft:
		if exists {
			return s.contractRepo.UpdateSalaryHistoryState(ctx, history.ID, companyID, contract.SalaryHistoryStateDraft)
		}
	}
	return nil
}

// describe reloads a movement for the response.
func (s *MovementServiceImpl) describe(ctx context.Context, kind movement.Kind, id, companyID string) (movement.MovementResponse, error) {
	switch kind {
	case movement.KindLoan:
		m, err := s.movementRepo.GetLoan(ctx, id, companyID)
		return loanResponse(m), err
	case movement.KindAlimony:
		m, err := s.movementRepo.GetAlimony(ctx, id, companyID)
		return alimonyResponse(m), err
	case movement.KindSettlement:
		m, err := s.movementRepo.GetSettlement(ctx, id, companyID)
		return settlementResponse(m), err
	case movement.KindPTU:
		m, err := s.movementRepo.GetPTUProcess(ctx, id, companyID)
		return ptuResponse(m), err
	case movement.KindExtratime:
		m, err := s.movementRepo.GetExtratime(ctx, id, companyID)
		return extratimeResponse(m), err
	case movement.KindSalaryIncrease:
		m, err := s.movementRepo.GetSalaryIncrease(ctx, id, companyID)
		return salaryIncreaseResponse(m), err
	default:
		return movement.MovementResponse{}, movement.ErrUnknownKind
	}
}

// ========== HELPERS ==========

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func settlementTitle(t movement.SettlementType) string {
	if t == movement.SettlementTypeLiquidation {
		return "Liquidation"
	}
	return "Settlement"
}

func loanResponse(l movement.Loan) movement.MovementResponse {
	amount := l.Amount
	return movement.MovementResponse{
		ID:         l.ID,
		Kind:       string(movement.KindLoan),
		Name:       l.Name,
		EmployeeID: &l.EmployeeID,
		State:      string(l.State),
		Amount:     &amount,
	}
}

func alimonyResponse(a movement.Alimony) movement.MovementResponse {
	amount := a.Amount
	return movement.MovementResponse{
		ID:         a.ID,
		Kind:       string(movement.KindAlimony),
		Name:       a.Name,
		EmployeeID: &a.EmployeeID,
		State:      string(a.State),
		Amount:     &amount,
	}
}

func settlementResponse(st movement.Settlement) movement.MovementResponse {
	settlementType := string(st.SettlementType)
	return movement.MovementResponse{
		ID:             st.ID,
		Kind:           string(movement.KindSettlement),
		Name:           st.Name,
		EmployeeID:     &st.EmployeeID,
		State:          string(st.State),
		SettlementType: &settlementType,
		PayslipID:      st.PayslipID,
	}
}

func ptuResponse(p movement.PTUProcess) movement.MovementResponse {
	amount := p.AmountToShare
	return movement.MovementResponse{
		ID:     p.ID,
		Kind:   string(movement.KindPTU),
		Name:   p.Name,
		State:  string(p.State),
		Amount: &amount,
	}
}

func extratimeResponse(e movement.Extratime) movement.MovementResponse {
	hours := decimal.Zero
	for _, l := range e.Lines {
		hours = hours.Add(l.Hours)
	}
	return movement.MovementResponse{
		ID:         e.ID,
		Kind:       string(movement.KindExtratime),
		Name:       e.Name,
		EmployeeID: &e.EmployeeID,
		State:      string(e.State),
		Amount:     &hours,
	}
}

func salaryIncreaseResponse(si movement.SalaryIncrease) movement.MovementResponse {
	amount := si.NewWage
	newSDI := si.NewSDI
	return movement.MovementResponse{
		ID:              si.ID,
		Kind:            string(movement.KindSalaryIncrease),
		Name:            si.Name,
		EmployeeID:      &si.EmployeeID,
		State:           string(si.State),
		Amount:          &amount,
		SalaryHistoryID: si.SalaryHistoryID,
		NewSDI:          &newSDI,
	}
}
