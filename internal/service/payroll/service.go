package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-mx/internal/fixtures"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Hours credited per attendance day on generated worked-days lines.
var hoursPerDay = decimal.NewFromInt(8)

// SettingsCache keeps resolved settings snapshots between requests.
// Implementations must tolerate being disabled: Get then always misses.
type SettingsCache interface {
	Get(ctx context.Context, companyID string) (payroll.Settings, bool)
	Set(ctx context.Context, settings payroll.Settings)
	Invalidate(ctx context.Context, companyID string)
}

type PayrollServiceImpl struct {
	tx           database.Transactor
	payrollRepo  payroll.PayrollRepository
	contractRepo contract.ContractRepository
	employeeRepo employee.EmployeeRepository
	inputs       payroll.InputProvider
	cache        SettingsCache
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	contractRepo contract.ContractRepository,
	employeeRepo employee.EmployeeRepository,
	inputs payroll.InputProvider,
	cache SettingsCache,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		tx:           tx,
		payrollRepo:  payrollRepo,
		contractRepo: contractRepo,
		employeeRepo: employeeRepo,
		inputs:       inputs,
		cache:        cache,
	}
}

// ========== SETTINGS ==========

func (s *PayrollServiceImpl) GetSettings(ctx context.Context) (payroll.SettingsResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SettingsResponse{}, err
	}

	settings, err := s.payrollRepo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrSettingsNotFound) {
			// Return default settings
			return mapToSettingsResponse(defaultSettings(companyID)), nil
		}
		return payroll.SettingsResponse{}, err
	}

	return mapToSettingsResponse(settings), nil
}

func (s *PayrollServiceImpl) UpdateSettings(ctx context.Context, req payroll.UpdateSettingsRequest) (payroll.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SettingsResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SettingsResponse{}, err
	}

	current, err := s.payrollRepo.GetSettings(ctx, companyID)
	if err != nil && !errors.Is(err, payroll.ErrSettingsNotFound) {
		return payroll.SettingsResponse{}, err
	}
	if errors.Is(err, payroll.ErrSettingsNotFound) {
		current = defaultSettings(companyID)
	}

	// Apply updates
	if req.UMA != nil {
		current.UMA = *req.UMA
	}
	if req.MinimumWageZone1 != nil {
		current.MinimumWageZone1 = *req.MinimumWageZone1
	}
	if req.MinimumWageZone2 != nil {
		current.MinimumWageZone2 = *req.MinimumWageZone2
	}
	if req.Rates != nil {
		current.Rates = *req.Rates
	}
	if req.ISRTables != nil {
		current.ISRTables = req.ISRTables
	}
	if req.SubsidyTables != nil {
		current.SubsidyTables = req.SubsidyTables
	}
	if req.SettlementStructures != nil {
		current.SettlementStructures = req.SettlementStructures
	}

	if err := current.Validate(); err != nil {
		return payroll.SettingsResponse{}, err
	}

	updated, err := s.payrollRepo.UpsertSettings(ctx, current)
	if err != nil {
		return payroll.SettingsResponse{}, err
	}
	s.cache.Invalidate(ctx, companyID)

	return mapToSettingsResponse(updated), nil
}

// resolveSettings returns the validated snapshot a computation pass runs
// against.
func (s *PayrollServiceImpl) resolveSettings(ctx context.Context, companyID string) (payroll.Settings, error) {
	if cached, ok := s.cache.Get(ctx, companyID); ok {
		return cached, nil
	}

	settings, err := s.payrollRepo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrSettingsNotFound) {
			return payroll.Settings{}, &payroll.ConfigurationError{
				Record:  "company " + companyID,
				Field:   "payroll_settings",
				Message: "payroll settings (UMA and IMSS rates) are not configured",
			}
		}
		return payroll.Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return payroll.Settings{}, err
	}

	s.cache.Set(ctx, settings)
	return settings, nil
}

func defaultSettings(companyID string) payroll.Settings {
	return fixtures.DefaultSettings(companyID)
}

// ========== PAYSLIPS ==========

// GenerateBatch creates a payslip run with one computed payslip per open
// contract in the period. The batch is a single transaction: the first
// payslip that fails to compute rolls everything back.
func (s *PayrollServiceImpl) GenerateBatch(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.PayslipRunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipRunResponse{}, err
	}

	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipRunResponse{}, err
	}

	dateFrom, _ := time.Parse(dateLayout, req.DateFrom)
	dateTo, _ := time.Parse(dateLayout, req.DateTo)

	settings, err := s.resolveSettings(ctx, companyID)
	if err != nil {
		return payroll.PayslipRunResponse{}, err
	}

	structure, err := s.payrollRepo.GetStructure(ctx, req.StructureID, companyID)
	if err != nil {
		return payroll.PayslipRunResponse{}, err
	}
	if err := ValidateStructure(structure); err != nil {
		return payroll.PayslipRunResponse{}, err
	}

	evaluator := NewRuleEvaluator(settings)

	var run payroll.PayslipRun
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		contracts, err := s.contractRepo.ListOpenInPeriod(ctx, companyID, dateFrom, dateTo)
		if err != nil {
			return fmt.Errorf("failed to list contracts: %w", err)
		}
		if len(contracts) == 0 {
			return payroll.ErrNoContractsInPeriod
		}

		employees, err := s.employeesByID(ctx, contracts, companyID)
		if err != nil {
			return err
		}

		run, err = s.payrollRepo.CreateRun(ctx, payroll.PayslipRun{
			ID:          newID(),
			CompanyID:   companyID,
			Name:        req.Name,
			DateFrom:    dateFrom,
			DateTo:      dateTo,
			StructureID: structure.ID,
			PeriodType:  payroll.PeriodType(req.PeriodType),
			State:       payroll.RunStateDraft,
		})
		if err != nil {
			return fmt.Errorf("failed to create payslip batch: %w", err)
		}

		for i := range contracts {
			ct := contracts[i]
			emp, ok := employees[ct.EmployeeID]
			if !ok {
				return fmt.Errorf("contract %s: %w", ct.ID, employee.ErrEmployeeNotFound)
			}

			inputs, err := s.inputs.InputsForPeriod(ctx, companyID, ct.EmployeeID, dateFrom, dateTo)
			if err != nil {
				return fmt.Errorf("failed to collect inputs for employee %s: %w", ct.EmployeeID, err)
			}

			slip := payroll.Payslip{
				ID:           newID(),
				CompanyID:    companyID,
				EmployeeID:   ct.EmployeeID,
				ContractID:   &ct.ID,
				StructureID:  structure.ID,
				PayslipRunID: &run.ID,
				Name:         fmt.Sprintf("%s - %s", req.Name, employeeLabel(emp)),
				DateFrom:     dateFrom,
				DateTo:       dateTo,
				PeriodType:   run.PeriodType,
				State:        payroll.PayslipStateDraft,
				WorkedDays:   defaultWorkedDays(ct, dateFrom, dateTo),
				Inputs:       inputs,
			}
			created, err := s.payrollRepo.CreatePayslip(ctx, slip)
			if err != nil {
				return fmt.Errorf("failed to create payslip for employee %s: %w", ct.EmployeeID, err)
			}
			created.Contract = &ct
			created.Employee = &emp

			computed, err := s.compute(ctx, evaluator, created, structure)
			if err != nil {
				return fmt.Errorf("payslip %s: %w", created.Name, err)
			}
			run.Payslips = append(run.Payslips, computed)
		}
		return nil
	})
	if err != nil {
		return payroll.PayslipRunResponse{}, err
	}

	slog.Info("payslip batch generated",
		"company_id", companyID,
		"run_id", run.ID,
		"payslips", len(run.Payslips),
	)

	return mapToRunResponse(run), nil
}

// ComputePayslip evaluates the structure rules and supersedes the previous
// lines. Done and cancelled payslips are immutable.
func (s *PayrollServiceImpl) ComputePayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	settings, err := s.resolveSettings(ctx, companyID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	var slip payroll.Payslip
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		loaded, err := s.loadPayslip(ctx, id, companyID)
		if err != nil {
			return err
		}
		if !loaded.Editable() {
			return payroll.ErrPayslipNotEditable
		}

		structure, err := s.payrollRepo.GetStructure(ctx, loaded.StructureID, companyID)
		if err != nil {
			return err
		}

		slip, err = s.compute(ctx, NewRuleEvaluator(settings), loaded, structure)
		return err
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapToPayslipResponse(slip), nil
}

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	slip, err := s.loadPayslip(ctx, id, companyID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapToPayslipResponse(slip), nil
}

func (s *PayrollServiceImpl) ComputeContribution(ctx context.Context, id string, kind payroll.ContributionKind) (payroll.ContributionResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ContributionResponse{}, err
	}

	settings, err := s.resolveSettings(ctx, companyID)
	if err != nil {
		return payroll.ContributionResponse{}, err
	}

	slip, err := s.loadPayslip(ctx, id, companyID)
	if err != nil {
		return payroll.ContributionResponse{}, err
	}

	calc := NewContributionCalculator(settings)
	amount, err := calc.Compute(slip, kind)
	if err != nil {
		return payroll.ContributionResponse{}, err
	}
	breakdown, err := calc.Breakdown(slip)
	if err != nil {
		return payroll.ContributionResponse{}, err
	}

	slog.Debug("imss contribution computed",
		"payslip_id", slip.ID,
		"kind", kind,
		"amount", amount.String(),
		"employer_total", breakdown.EmployerTotal.String(),
	)

	return payroll.ContributionResponse{
		PayslipID:  slip.ID,
		Kind:       string(kind),
		Amount:     amount,
		BaseCal:    breakdown.BaseCal,
		ExcessBase: breakdown.ExcessBase,
		FullDays:   breakdown.Days.FullDays,
		DaysLeft:   breakdown.Days.DaysLeft,
		WorkedDays: breakdown.Days.WorkedDays,
	}, nil
}

// ToggleHideRule flips the hide flag on every hideable line of the payslip.
func (s *PayrollServiceImpl) ToggleHideRule(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	var slip payroll.Payslip
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.payrollRepo.GetPayslipByID(ctx, id, companyID); err != nil {
			return err
		}
		toggled, err := s.payrollRepo.ToggleHideRule(ctx, id, companyID)
		if err != nil {
			return fmt.Errorf("failed to toggle hide rule: %w", err)
		}
		slog.Debug("hide rule toggled", "payslip_id", id, "lines", toggled)

		slip, err = s.loadPayslip(ctx, id, companyID)
		return err
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapToPayslipResponse(slip), nil
}

// CreatePayslip stores a single draft payslip outside of a batch. Lines
// are not computed.
func (s *PayrollServiceImpl) CreatePayslip(ctx context.Context, req payroll.CreatePayslipRequest) (payroll.PayslipResponse, error) {
	companyID, _, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	if req.DateTo.Before(req.DateFrom) {
		return payroll.PayslipResponse{}, payroll.ErrInvalidPeriod
	}

	var slip payroll.Payslip
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ct, err := s.contractRepo.GetByID(ctx, req.ContractID, companyID)
		if err != nil {
			return err
		}
		emp, err := s.loadEmployee(ctx, req.EmployeeID, companyID)
		if err != nil {
			return err
		}

		inputs := make([]payroll.InputLine, len(req.Inputs))
		copy(inputs, req.Inputs)
		for i := range inputs {
			inputs[i].Sequence = i + 1
		}

		slip, err = s.payrollRepo.CreatePayslip(ctx, payroll.Payslip{
			ID:          newID(),
			CompanyID:   companyID,
			EmployeeID:  req.EmployeeID,
			ContractID:  &ct.ID,
			StructureID: req.StructureID,
			Name:        req.Name,
			DateFrom:    req.DateFrom,
			DateTo:      req.DateTo,
			PaymentDay:  req.PaymentDay,
			PeriodType:  req.PeriodType,
			State:       payroll.PayslipStateDraft,
			WorkedDays:  defaultWorkedDays(ct, req.DateFrom, req.DateTo),
			Inputs:      inputs,
		})
		if err != nil {
			return fmt.Errorf("failed to create payslip: %w", err)
		}
		slip.Contract = &ct
		slip.Employee = &emp
		return nil
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	return mapToPayslipResponse(slip), nil
}

// ========== HELPERS ==========

// compute runs the evaluator over slip, replaces its stored lines and
// moves it to verify. Must be called inside a transaction.
func (s *PayrollServiceImpl) compute(ctx context.Context, evaluator *RuleEvaluator, slip payroll.Payslip, structure payroll.Structure) (payroll.Payslip, error) {
	ytd, err := s.payrollRepo.GetYearToDate(ctx, slip.EmployeeID, slip.CompanyID, slip.DateTo.Year(), slip.ID)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to load year to date totals: %w", err)
	}
	slip.YearToDate = ytd

	lines, err := evaluator.Evaluate(slip, structure)
	if err != nil {
		return payroll.Payslip{}, err
	}
	for i := range lines {
		lines[i].ID = newID()
		lines[i].PayslipID = slip.ID
	}

	if err := s.payrollRepo.ReplaceLines(ctx, slip.ID, slip.CompanyID, lines); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to store payslip lines: %w", err)
	}
	if err := s.payrollRepo.UpdatePayslipState(ctx, slip.ID, slip.CompanyID, payroll.PayslipStateVerify); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to update payslip state: %w", err)
	}

	slip.Lines = lines
	slip.State = payroll.PayslipStateVerify
	return slip, nil
}

// loadPayslip fetches a payslip with its contract and employee attached.
func (s *PayrollServiceImpl) loadPayslip(ctx context.Context, id, companyID string) (payroll.Payslip, error) {
	slip, err := s.payrollRepo.GetPayslipByID(ctx, id, companyID)
	if err != nil {
		return payroll.Payslip{}, err
	}

	if slip.ContractID != nil {
		ct, err := s.contractRepo.GetByID(ctx, *slip.ContractID, companyID)
		if err != nil {
			return payroll.Payslip{}, err
		}
		slip.Contract = &ct
	}

	emp, err := s.loadEmployee(ctx, slip.EmployeeID, companyID)
	if err != nil {
		return payroll.Payslip{}, err
	}
	slip.Employee = &emp

	return slip, nil
}

func (s *PayrollServiceImpl) loadEmployee(ctx context.Context, id, companyID string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return employee.Employee{}, err
	}
	if emp.EmployerRegister == nil && emp.EmployerRegisterID != nil {
		reg, err := s.employeeRepo.GetEmployerRegister(ctx, *emp.EmployerRegisterID, companyID)
		if err != nil && !errors.Is(err, employee.ErrEmployerRegisterNotFound) {
			return employee.Employee{}, err
		}
		if err == nil {
			emp.EmployerRegister = &reg
		}
	}
	return emp, nil
}

func (s *PayrollServiceImpl) employeesByID(ctx context.Context, contracts []contract.Contract, companyID string) (map[string]employee.Employee, error) {
	ids := make([]string, 0, len(contracts))
	for _, ct := range contracts {
		ids = append(ids, ct.EmployeeID)
	}

	employees, err := s.employeeRepo.GetByIDs(ctx, ids, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}

	byID := make(map[string]employee.Employee, len(employees))
	for _, emp := range employees {
		byID[emp.ID] = emp
	}
	return byID, nil
}

// defaultWorkedDays credits the part of the period covered by the
// contract as attendance.
func defaultWorkedDays(ct contract.Contract, dateFrom, dateTo time.Time) []payroll.WorkedDaysEntry {
	from := dateFrom
	if ct.DateStart.After(from) {
		from = ct.DateStart
	}
	to := dateTo
	if ct.DateEnd != nil && ct.DateEnd.Before(to) {
		to = *ct.DateEnd
	}

	days := decimal.Zero
	if !to.Before(from) {
		days = decimal.NewFromInt(int64(contract.DaysBetween(from, to) + 1))
	}

	return []payroll.WorkedDaysEntry{{
		Sequence:      1,
		Code:          payroll.WorkedDaysAttendance,
		Name:          "Normal working days paid at 100%",
		NumberOfDays:  days,
		NumberOfHours: days.Mul(hoursPerDay),
	}}
}

func employeeLabel(emp employee.Employee) string {
	if emp.EmployeeNumber != "" {
		return emp.EmployeeNumber + " " + emp.FullName
	}
	return emp.FullName
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ========== MAPPERS ==========

func mapToSettingsResponse(s payroll.Settings) payroll.SettingsResponse {
	return payroll.SettingsResponse{
		CompanyID:            s.CompanyID,
		UMA:                  s.UMA,
		MinimumWageZone1:     s.MinimumWageZone1,
		MinimumWageZone2:     s.MinimumWageZone2,
		Rates:                s.Rates,
		ISRTables:            s.ISRTables,
		SubsidyTables:        s.SubsidyTables,
		SettlementStructures: s.SettlementStructures,
	}
}

func mapToRunResponse(run payroll.PayslipRun) payroll.PayslipRunResponse {
	payslips := make([]payroll.PayslipResponse, 0, len(run.Payslips))
	for _, p := range run.Payslips {
		payslips = append(payslips, mapToPayslipResponse(p))
	}
	return payroll.PayslipRunResponse{
		ID:          run.ID,
		Name:        run.Name,
		DateFrom:    run.DateFrom.Format(dateLayout),
		DateTo:      run.DateTo.Format(dateLayout),
		StructureID: run.StructureID,
		PeriodType:  string(run.PeriodType),
		State:       string(run.State),
		Payslips:    payslips,
	}
}

func mapToPayslipResponse(p payroll.Payslip) payroll.PayslipResponse {
	resp := payroll.PayslipResponse{
		ID:           p.ID,
		Name:         p.Name,
		EmployeeID:   p.EmployeeID,
		ContractID:   p.ContractID,
		StructureID:  p.StructureID,
		PayslipRunID: p.PayslipRunID,
		DateFrom:     p.DateFrom.Format(dateLayout),
		DateTo:       p.DateTo.Format(dateLayout),
		PeriodType:   string(p.PeriodType),
		State:        string(p.State),
		WorkedDays:   make([]payroll.WorkedDaysResponse, 0, len(p.WorkedDays)),
		Inputs:       make([]payroll.InputLineResponse, 0, len(p.Inputs)),
		Lines:        make([]payroll.ResultLineResponse, 0, len(p.Lines)),
	}
	if p.PaymentDay != nil {
		day := p.PaymentDay.Format(dateLayout)
		resp.PaymentDay = &day
	}
	if p.Contract != nil {
		first := p.Contract.DateStart
		if p.Contract.FirstContractDate != nil {
			first = *p.Contract.FirstContractDate
		}
		resp.Antiquity = EncodeAntiquity(first, p.DateTo)
	}

	for _, wd := range p.WorkedDays {
		resp.WorkedDays = append(resp.WorkedDays, payroll.WorkedDaysResponse{
			Code:          wd.Code,
			Name:          wd.Name,
			NumberOfDays:  wd.NumberOfDays,
			NumberOfHours: wd.NumberOfHours,
		})
	}
	for _, in := range p.Inputs {
		resp.Inputs = append(resp.Inputs, payroll.InputLineResponse{
			Code:   in.Code,
			Name:   in.Name,
			Amount: in.Amount,
			Source: string(in.Source),
		})
	}
	for _, l := range p.Lines {
		resp.Lines = append(resp.Lines, payroll.ResultLineResponse{
			Sequence:      l.Sequence,
			Code:          l.Code,
			Name:          l.Name,
			Category:      l.CategoryCode,
			RuleType:      string(l.RuleType),
			Amount:        l.Amount,
			Quantity:      l.Quantity,
			Rate:          l.Rate,
			Total:         l.Total,
			ExemptAmount:  l.ExemptAmount,
			TaxableAmount: l.TaxableAmount,
			HideRule:      l.HideRule,
		})
	}

	t := Aggregate(p.Lines)
	resp.Totals = payroll.TotalsResponse{
		AllowanceTotal: t.AllowanceTotal,
		DeductionTotal: t.DeductionTotal,
		OtherPayments:  t.OtherPayments,
		AmountSubtotal: t.AmountSubtotal,
		Discount:       t.Discount,
		Retentions:     t.Retentions,
		AmountTotal:    t.AmountTotal,
	}
	return resp
}
