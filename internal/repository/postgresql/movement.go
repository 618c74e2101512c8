package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/movement"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type movementRepository struct {
	db *database.DB
}

func NewMovementRepository(db *database.DB) movement.MovementRepository {
	return &movementRepository{db: db}
}

var movementTables = map[movement.Kind]string{
	movement.KindLoan:           "loans",
	movement.KindAlimony:        "alimonies",
	movement.KindSettlement:     "settlements",
	movement.KindPTU:            "ptu_processes",
	movement.KindExtratime:      "extratimes",
	movement.KindSalaryIncrease: "salary_increases",
}

func movementTable(kind movement.Kind) (string, error) {
	table, ok := movementTables[kind]
	if !ok {
		return "", movement.ErrUnknownKind
	}
	return table, nil
}

// ========== SHARED ==========

func (r *movementRepository) GetState(ctx context.Context, kind movement.Kind, id string, companyID string) (movement.State, error) {
	table, err := movementTable(kind)
	if err != nil {
		return "", err
	}
	q := GetQuerier(ctx, r.db)

	var state movement.State
	err = q.QueryRow(ctx, `SELECT state FROM `+table+` WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID).Scan(&state)
	if err != nil {
		if isNoRows(err) {
			return "", movement.ErrMovementNotFound
		}
		return "", fmt.Errorf("failed to get %s state: %w", kind, err)
	}
	return state, nil
}

func (r *movementRepository) UpdateState(ctx context.Context, kind movement.Kind, id string, companyID string, state movement.State) error {
	table, err := movementTable(kind)
	if err != nil {
		return err
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE `+table+` SET state = $3, updated_at = NOW() WHERE id = $1 AND company_id = $2`, id, companyID, state)
	if err != nil {
		return fmt.Errorf("failed to update %s state: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return movement.ErrMovementNotFound
	}
	return nil
}

func (r *movementRepository) Delete(ctx context.Context, kind movement.Kind, id string, companyID string) error {
	table, err := movementTable(kind)
	if err != nil {
		return err
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return movement.ErrMovementNotFound
	}
	return nil
}

// ========== LOANS ==========

const loanColumns = `
	id, company_id, employee_id, name, date_start, date_end, total_amount, total_paid,
	amount, periods, input_code, note, state, created_at, updated_at
`

func scanLoan(row pgx.Row, l *movement.Loan) error {
	return row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.Name, &l.DateStart, &l.DateEnd, &l.TotalAmount, &l.TotalPaid,
		&l.Amount, &l.Periods, &l.InputCode, &l.Note, &l.State, &l.CreatedAt, &l.UpdatedAt,
	)
}

func (r *movementRepository) CreateLoan(ctx context.Context, loan movement.Loan) (movement.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO loans (
			company_id, employee_id, name, date_start, date_end, total_amount, total_paid,
			amount, periods, input_code, note, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + loanColumns

	var l movement.Loan
	err := scanLoan(q.QueryRow(ctx, query,
		loan.CompanyID, loan.EmployeeID, loan.Name, loan.DateStart, loan.DateEnd, loan.TotalAmount, loan.TotalPaid,
		loan.Amount, loan.Periods, loan.InputCode, loan.Note, loan.State,
	), &l)
	if err != nil {
		return movement.Loan{}, fmt.Errorf("failed to create loan: %w", err)
	}
	return l, nil
}

func (r *movementRepository) GetLoan(ctx context.Context, id string, companyID string) (movement.Loan, error) {
	q := GetQuerier(ctx, r.db)

	var l movement.Loan
	if err := scanLoan(q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 AND company_id = $2`, id, companyID), &l); err != nil {
		if isNoRows(err) {
			return movement.Loan{}, movement.ErrMovementNotFound
		}
		return movement.Loan{}, fmt.Errorf("failed to get loan: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, loan_id, payslip_id, date, amount, state
		FROM loan_lines
		WHERE loan_id = $1
		ORDER BY date
	`, id)
	if err != nil {
		return movement.Loan{}, fmt.Errorf("failed to get loan payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p movement.LoanLine
		if err := rows.Scan(&p.ID, &p.LoanID, &p.PayslipID, &p.Date, &p.Amount, &p.State); err != nil {
			return movement.Loan{}, err
		}
		l.Payments = append(l.Payments, p)
	}

	if err = rows.Err(); err != nil {
		return movement.Loan{}, err
	}

	return l, nil
}

// ListApprovedLoans returns approved loans of the employee started by the
// end of the period and not finished before it.
func (r *movementRepository) ListApprovedLoans(ctx context.Context, employeeID string, companyID string, dateFrom, dateTo time.Time) ([]movement.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE employee_id = $1 AND company_id = $2 AND state = $3
			AND date_start <= $5
			AND (date_end IS NULL OR date_end >= $4)
		ORDER BY date_start
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, movement.StateApproved, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []movement.Loan
	for rows.Next() {
		var l movement.Loan
		if err := scanLoan(rows, &l); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// ========== ALIMONY ==========

const alimonyColumns = `
	id, company_id, employee_id, name, date_start, date_end, proceeding, folio, beneficiary,
	amount, amount_type, input_code, note, state, created_at, updated_at
`

func scanAlimony(row pgx.Row, a *movement.Alimony) error {
	return row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.Name, &a.DateStart, &a.DateEnd, &a.Proceeding, &a.Folio, &a.Beneficiary,
		&a.Amount, &a.AmountType, &a.InputCode, &a.Note, &a.State, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *movementRepository) CreateAlimony(ctx context.Context, alimony movement.Alimony) (movement.Alimony, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO alimonies (
			company_id, employee_id, name, date_start, date_end, proceeding, folio, beneficiary,
			amount, amount_type, input_code, note, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + alimonyColumns

	var a movement.Alimony
	err := scanAlimony(q.QueryRow(ctx, query,
		alimony.CompanyID, alimony.EmployeeID, alimony.Name, alimony.DateStart, alimony.DateEnd,
		alimony.Proceeding, alimony.Folio, alimony.Beneficiary, alimony.Amount, alimony.AmountType,
		alimony.InputCode, alimony.Note, alimony.State,
	), &a)
	if err != nil {
		return movement.Alimony{}, fmt.Errorf("failed to create alimony: %w", err)
	}
	return a, nil
}

func (r *movementRepository) GetAlimony(ctx context.Context, id string, companyID string) (movement.Alimony, error) {
	q := GetQuerier(ctx, r.db)

	var a movement.Alimony
	if err := scanAlimony(q.QueryRow(ctx, `SELECT `+alimonyColumns+` FROM alimonies WHERE id = $1 AND company_id = $2`, id, companyID), &a); err != nil {
		if isNoRows(err) {
			return movement.Alimony{}, movement.ErrMovementNotFound
		}
		return movement.Alimony{}, fmt.Errorf("failed to get alimony: %w", err)
	}
	return a, nil
}

func (r *movementRepository) ListApprovedAlimonies(ctx context.Context, employeeID string, companyID string, dateFrom, dateTo time.Time) ([]movement.Alimony, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + alimonyColumns + `
		FROM alimonies
		WHERE employee_id = $1 AND company_id = $2 AND state = $3
			AND date_start <= $5
			AND (date_end IS NULL OR date_end >= $4)
		ORDER BY date_start
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, movement.StateApproved, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list alimonies: %w", err)
	}
	defer rows.Close()

	var alimonies []movement.Alimony
	for rows.Next() {
		var a movement.Alimony
		if err := scanAlimony(rows, &a); err != nil {
			return nil, err
		}
		alimonies = append(alimonies, a)
	}
	return alimonies, rows.Err()
}

// ========== SETTLEMENTS ==========

const settlementColumns = `
	id, company_id, employee_id, contract_id, name, date_start, date_end, reason_for_dismissal,
	settlement_type, cdate_start, cdate_end, payment_day, structure_id, payslip_id, notes, state,
	created_at, updated_at
`

func scanSettlement(row pgx.Row, s *movement.Settlement) error {
	return row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.ContractID, &s.Name, &s.DateStart, &s.DateEnd, &s.ReasonForDismissal,
		&s.SettlementType, &s.CDateStart, &s.CDateEnd, &s.PaymentDay, &s.StructureID, &s.PayslipID, &s.Notes, &s.State,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

func (r *movementRepository) CreateSettlement(ctx context.Context, settlement movement.Settlement) (movement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO settlements (
			company_id, employee_id, contract_id, name, date_start, date_end, reason_for_dismissal,
			settlement_type, cdate_start, cdate_end, payment_day, notes, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + settlementColumns

	var s movement.Settlement
	err := scanSettlement(q.QueryRow(ctx, query,
		settlement.CompanyID, settlement.EmployeeID, settlement.ContractID, settlement.Name,
		settlement.DateStart, settlement.DateEnd, settlement.ReasonForDismissal, settlement.SettlementType,
		settlement.CDateStart, settlement.CDateEnd, settlement.PaymentDay, settlement.Notes, settlement.State,
	), &s)
	if err != nil {
		return movement.Settlement{}, fmt.Errorf("failed to create settlement: %w", err)
	}
	return s, nil
}

func (r *movementRepository) GetSettlement(ctx context.Context, id string, companyID string) (movement.Settlement, error) {
	q := GetQuerier(ctx, r.db)

	var s movement.Settlement
	if err := scanSettlement(q.QueryRow(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1 AND company_id = $2`, id, companyID), &s); err != nil {
		if isNoRows(err) {
			return movement.Settlement{}, movement.ErrMovementNotFound
		}
		return movement.Settlement{}, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

func (r *movementRepository) SetSettlementPayslip(ctx context.Context, id string, companyID string, structureID, payslipID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE settlements SET structure_id = $3, payslip_id = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, structureID, payslipID)
	if err != nil {
		return fmt.Errorf("failed to link settlement payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return movement.ErrMovementNotFound
	}
	return nil
}

// ========== PTU ==========

const ptuColumns = `
	id, company_id, name, date, amount_to_share, payslip_run_id, structure_id, note, state, created_at, updated_at
`

func scanPTU(row pgx.Row, p *movement.PTUProcess) error {
	return row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Date, &p.AmountToShare, &p.PayslipRunID, &p.StructureID,
		&p.Note, &p.State, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *movementRepository) CreatePTUProcess(ctx context.Context, ptu movement.PTUProcess) (movement.PTUProcess, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO ptu_processes (company_id, name, date, amount_to_share, structure_id, note, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + ptuColumns

	var p movement.PTUProcess
	err := scanPTU(q.QueryRow(ctx, query,
		ptu.CompanyID, ptu.Name, ptu.Date, ptu.AmountToShare, ptu.StructureID, ptu.Note, ptu.State,
	), &p)
	if err != nil {
		return movement.PTUProcess{}, fmt.Errorf("failed to create PTU process: %w", err)
	}
	return p, nil
}

func (r *movementRepository) GetPTUProcess(ctx context.Context, id string, companyID string) (movement.PTUProcess, error) {
	q := GetQuerier(ctx, r.db)

	var p movement.PTUProcess
	if err := scanPTU(q.QueryRow(ctx, `SELECT `+ptuColumns+` FROM ptu_processes WHERE id = $1 AND company_id = $2`, id, companyID), &p); err != nil {
		if isNoRows(err) {
			return movement.PTUProcess{}, movement.ErrMovementNotFound
		}
		return movement.PTUProcess{}, fmt.Errorf("failed to get PTU process: %w", err)
	}
	return p, nil
}

// ========== EXTRATIME ==========

const extratimeColumns = `
	id, company_id, employee_id, contract_id, name, date_from, date_to, notes, state, created_at, updated_at
`

func scanExtratime(row pgx.Row, e *movement.Extratime) error {
	return row.Scan(
		&e.ID, &e.CompanyID, &e.EmployeeID, &e.ContractID, &e.Name, &e.DateFrom, &e.DateTo,
		&e.Notes, &e.State, &e.CreatedAt, &e.UpdatedAt,
	)
}

// CreateExtratime inserts the sheet with its lines.
func (r *movementRepository) CreateExtratime(ctx context.Context, extratime movement.Extratime) (movement.Extratime, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO extratimes (company_id, employee_id, contract_id, name, date_from, date_to, notes, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + extratimeColumns

	var e movement.Extratime
	err := scanExtratime(q.QueryRow(ctx, query,
		extratime.CompanyID, extratime.EmployeeID, extratime.ContractID, extratime.Name,
		extratime.DateFrom, extratime.DateTo, extratime.Notes, extratime.State,
	), &e)
	if err != nil {
		return movement.Extratime{}, fmt.Errorf("failed to create extratime: %w", err)
	}

	for _, line := range extratime.Lines {
		var l movement.ExtratimeLine
		err := q.QueryRow(ctx, `
			INSERT INTO extratime_lines (extratime_id, date, hours, type_hour, state)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, extratime_id, date, hours, type_hour, state
		`, e.ID, line.Date, line.Hours, line.TypeHour, line.State).Scan(
			&l.ID, &l.ExtratimeID, &l.Date, &l.Hours, &l.TypeHour, &l.State,
		)
		if err != nil {
			return movement.Extratime{}, fmt.Errorf("failed to create extratime line: %w", err)
		}
		e.Lines = append(e.Lines, l)
	}

	return e, nil
}

func (r *movementRepository) GetExtratime(ctx context.Context, id string, companyID string) (movement.Extratime, error) {
	q := GetQuerier(ctx, r.db)

	var e movement.Extratime
	if err := scanExtratime(q.QueryRow(ctx, `SELECT `+extratimeColumns+` FROM extratimes WHERE id = $1 AND company_id = $2`, id, companyID), &e); err != nil {
		if isNoRows(err) {
			return movement.Extratime{}, movement.ErrMovementNotFound
		}
		return movement.Extratime{}, fmt.Errorf("failed to get extratime: %w", err)
	}

	lines, err := r.extratimeLines(ctx, q, []string{id})
	if err != nil {
		return movement.Extratime{}, err
	}
	e.Lines = lines[id]

	return e, nil
}

func (r *movementRepository) UpdateExtratimeLinesState(ctx context.Context, extratimeID string, companyID string, state movement.State) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE extratime_lines l
		SET state = $3
		FROM extratimes e
		WHERE l.extratime_id = e.id AND e.id = $1 AND e.company_id = $2
	`, extratimeID, companyID, state)
	if err != nil {
		return fmt.Errorf("failed to update extratime lines: %w", err)
	}
	return nil
}

// ListApprovedExtratime returns approved sheets of the employee that
// overlap the period, with all their lines.
func (r *movementRepository) ListApprovedExtratime(ctx context.Context, employeeID string, companyID string, dateFrom, dateTo time.Time) ([]movement.Extratime, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + extratimeColumns + `
		FROM extratimes
		WHERE employee_id = $1 AND company_id = $2 AND state = $3
			AND date_from <= $5 AND date_to >= $4
		ORDER BY date_from
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, movement.StateApproved, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list extratime: %w", err)
	}

	var sheets []movement.Extratime
	var ids []string
	for rows.Next() {
		var e movement.Extratime
		if err := scanExtratime(rows, &e); err != nil {
			rows.Close()
			return nil, err
		}
		sheets = append(sheets, e)
		ids = append(ids, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := r.extratimeLines(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i].Lines = lines[sheets[i].ID]
	}

	return sheets, nil
}

func (r *movementRepository) extratimeLines(ctx context.Context, q database.Querier, ids []string) (map[string][]movement.ExtratimeLine, error) {
	lines := make(map[string][]movement.ExtratimeLine, len(ids))
	if len(ids) == 0 {
		return lines, nil
	}

	rows, err := q.Query(ctx, `
		SELECT id, extratime_id, date, hours, type_hour, state
		FROM extratime_lines
		WHERE extratime_id = ANY($1)
		ORDER BY date
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get extratime lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l movement.ExtratimeLine
		if err := rows.Scan(&l.ID, &l.ExtratimeID, &l.Date, &l.Hours, &l.TypeHour, &l.State); err != nil {
			return nil, err
		}
		lines[l.ExtratimeID] = append(lines[l.ExtratimeID], l)
	}
	return lines, rows.Err()
}

// ========== SALARY INCREASES ==========

const salaryIncreaseColumns = `
	id, company_id, employee_id, contract_id, name, date_apply, current_wage, current_sdi,
	new_wage, new_sdi, salary_history_id, notes, state, created_at, updated_at
`

func scanSalaryIncrease(row pgx.Row, si *movement.SalaryIncrease) error {
	return row.Scan(
		&si.ID, &si.CompanyID, &si.EmployeeID, &si.ContractID, &si.Name, &si.DateApply, &si.CurrentWage, &si.CurrentSDI,
		&si.NewWage, &si.NewSDI, &si.SalaryHistoryID, &si.Notes, &si.State, &si.CreatedAt, &si.UpdatedAt,
	)
}

func (r *movementRepository) CreateSalaryIncrease(ctx context.Context, increase movement.SalaryIncrease) (movement.SalaryIncrease, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_increases (
			company_id, employee_id, contract_id, name, date_apply, current_wage, current_sdi,
			new_wage, new_sdi, notes, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + salaryIncreaseColumns

	var si movement.SalaryIncrease
	err := scanSalaryIncrease(q.QueryRow(ctx, query,
		increase.CompanyID, increase.EmployeeID, increase.ContractID, increase.Name, increase.DateApply,
		increase.CurrentWage, increase.CurrentSDI, increase.NewWage, increase.NewSDI, increase.Notes, increase.State,
	), &si)
	if err != nil {
		return movement.SalaryIncrease{}, fmt.Errorf("failed to create salary increase: %w", err)
	}
	return si, nil
}

func (r *movementRepository) GetSalaryIncrease(ctx context.Context, id string, companyID string) (movement.SalaryIncrease, error) {
	q := GetQuerier(ctx, r.db)

	var si movement.SalaryIncrease
	if err := scanSalaryIncrease(q.QueryRow(ctx, `SELECT `+salaryIncreaseColumns+` FROM salary_increases WHERE id = $1 AND company_id = $2`, id, companyID), &si); err != nil {
		if isNoRows(err) {
			return movement.SalaryIncrease{}, movement.ErrMovementNotFound
		}
		return movement.SalaryIncrease{}, fmt.Errorf("failed to get salary increase: %w", err)
	}
	return si, nil
}

func (r *movementRepository) SetSalaryIncreaseHistory(ctx context.Context, id string, companyID string, salaryHistoryID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_increases SET salary_history_id = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, salaryHistoryID)
	if err != nil {
		return fmt.Errorf("failed to link salary history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return movement.ErrMovementNotFound
	}
	return nil
}
