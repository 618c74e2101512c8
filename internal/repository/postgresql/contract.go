package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type contractRepository struct {
	db *database.DB
}

func NewContractRepository(db *database.DB) contract.ContractRepository {
	return &contractRepository{db: db}
}

const contractColumns = `
	id, company_id, employee_id, name, wage, sdi, sbc, antiquity, first_contract_date,
	date_start, date_end, salary_type, contract_type, structure_type, period_type,
	allowance_catalog_id, state, created_at, updated_at
`

func scanContract(row pgx.Row, c *contract.Contract) error {
	return row.Scan(
		&c.ID, &c.CompanyID, &c.EmployeeID, &c.Name, &c.Wage, &c.SDI, &c.SBC, &c.Antiquity,
		&c.FirstContractDate, &c.DateStart, &c.DateEnd, &c.SalaryType, &c.ContractType,
		&c.StructureType, &c.PeriodType, &c.AllowanceCatalogID, &c.State, &c.CreatedAt, &c.UpdatedAt,
	)
}

// ========== CONTRACTS ==========

func (r *contractRepository) GetByID(ctx context.Context, id string, companyID string) (contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1 AND company_id = $2`

	var c contract.Contract
	if err := scanContract(q.QueryRow(ctx, query, id, companyID), &c); err != nil {
		if isNoRows(err) {
			return contract.Contract{}, contract.ErrContractNotFound
		}
		return contract.Contract{}, fmt.Errorf("failed to get contract: %w", err)
	}

	return c, nil
}

func (r *contractRepository) ListOpen(ctx context.Context, companyID string) ([]contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE company_id = $1 AND state = $2 ORDER BY date_start`

	contracts, err := r.queryContracts(ctx, query, companyID, contract.StateOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to list open contracts: %w", err)
	}

	catalogIDs := make([]string, 0, len(contracts))
	for _, c := range contracts {
		if c.AllowanceCatalogID != nil {
			catalogIDs = append(catalogIDs, *c.AllowanceCatalogID)
		}
	}
	catalogs, err := r.loadCatalogs(ctx, q, catalogIDs, companyID)
	if err != nil {
		return nil, err
	}
	for i, c := range contracts {
		if c.AllowanceCatalogID == nil {
			continue
		}
		if catalog, ok := catalogs[*c.AllowanceCatalogID]; ok {
			contracts[i].AllowanceCatalog = &catalog
		}
	}

	return contracts, nil
}

// ListOpenInPeriod returns open contracts that overlap the period.
func (r *contractRepository) ListOpenInPeriod(ctx context.Context, companyID string, dateFrom, dateTo time.Time) ([]contract.Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE company_id = $1 AND state = $2
			AND date_start <= $4
			AND (date_end IS NULL OR date_end >= $3)
		ORDER BY employee_id
	`

	contracts, err := r.queryContracts(ctx, query, companyID, contract.StateOpen, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts in period: %w", err)
	}
	return contracts, nil
}

func (r *contractRepository) ListCompanyIDsWithOpenContracts(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT company_id FROM contracts WHERE state = $1`, contract.StateOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *contractRepository) UpdateWage(ctx context.Context, id string, companyID string, wage decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE contracts SET wage = $3, updated_at = NOW() WHERE id = $1 AND company_id = $2`, id, companyID, wage)
	if err != nil {
		return fmt.Errorf("failed to update wage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contract.ErrContractNotFound
	}
	return nil
}

func (r *contractRepository) UpdateBase(ctx context.Context, id string, companyID string, antiquity int, sdi, sbc decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE contracts
		SET antiquity = $3, sdi = $4, sbc = $5, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`

	tag, err := q.Exec(ctx, query, id, companyID, antiquity, sdi, sbc)
	if err != nil {
		return fmt.Errorf("failed to update salary base: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contract.ErrContractNotFound
	}
	return nil
}

func (r *contractRepository) queryContracts(ctx context.Context, query string, args ...interface{}) ([]contract.Contract, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []contract.Contract
	for rows.Next() {
		var c contract.Contract
		if err := scanContract(rows, &c); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return contracts, nil
}

// ========== ALLOWANCE CATALOGS ==========

func (r *contractRepository) GetAllowanceCatalog(ctx context.Context, id string, companyID string) (contract.AllowanceCatalog, error) {
	q := GetQuerier(ctx, r.db)

	catalogs, err := r.loadCatalogs(ctx, q, []string{id}, companyID)
	if err != nil {
		return contract.AllowanceCatalog{}, err
	}
	catalog, ok := catalogs[id]
	if !ok {
		return contract.AllowanceCatalog{}, contract.ErrAllowanceCatalogNotFound
	}
	return catalog, nil
}

func (r *contractRepository) loadCatalogs(ctx context.Context, q database.Querier, ids []string, companyID string) (map[string]contract.AllowanceCatalog, error) {
	catalogs := make(map[string]contract.AllowanceCatalog, len(ids))
	if len(ids) == 0 {
		return catalogs, nil
	}

	rows, err := q.Query(ctx, `
		SELECT id, company_id, name, created_at, updated_at
		FROM allowance_catalogs
		WHERE id = ANY($1) AND company_id = $2
	`, ids, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance catalogs: %w", err)
	}
	for rows.Next() {
		var c contract.AllowanceCatalog
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		catalogs[c.ID] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, `
		SELECT l.id, l.catalog_id, l.sequence, l.antiquity, l.holidays, l.pvp, l.bonus
		FROM allowance_catalog_lines l
		JOIN allowance_catalogs c ON c.id = l.catalog_id
		WHERE l.catalog_id = ANY($1) AND c.company_id = $2
		ORDER BY l.antiquity, l.sequence
	`, ids, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance catalog lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l contract.AllowanceCatalogLine
		if err := rows.Scan(&l.ID, &l.CatalogID, &l.Sequence, &l.Antiquity, &l.Holidays, &l.PVP, &l.Bonus); err != nil {
			return nil, err
		}
		c := catalogs[l.CatalogID]
		c.Lines = append(c.Lines, l)
		catalogs[l.CatalogID] = c
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return catalogs, nil
}

// ========== SALARY HISTORY ==========

const salaryHistoryColumns = `
	id, company_id, contract_id, employee_id, salary_increase_id, date_applied,
	older_wage, older_sdi, new_wage, new_sdi, state, created_at, updated_at
`

func scanSalaryHistory(row pgx.Row, h *contract.SalaryHistory) error {
	return row.Scan(
		&h.ID, &h.CompanyID, &h.ContractID, &h.EmployeeID, &h.SalaryIncreaseID, &h.DateApplied,
		&h.OlderWage, &h.OlderSDI, &h.NewWage, &h.NewSDI, &h.State, &h.CreatedAt, &h.UpdatedAt,
	)
}

func (r *contractRepository) CreateSalaryHistory(ctx context.Context, history contract.SalaryHistory) (contract.SalaryHistory, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_histories (
			company_id, contract_id, employee_id, salary_increase_id, date_applied,
			older_wage, older_sdi, new_wage, new_sdi, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + salaryHistoryColumns

	var h contract.SalaryHistory
	err := scanSalaryHistory(q.QueryRow(ctx, query,
		history.CompanyID, history.ContractID, history.EmployeeID, history.SalaryIncreaseID, history.DateApplied,
		history.OlderWage, history.OlderSDI, history.NewWage, history.NewSDI, history.State,
	), &h)
	if err != nil {
		return contract.SalaryHistory{}, fmt.Errorf("failed to create salary history: %w", err)
	}

	return h, nil
}

func (r *contractRepository) GetSalaryHistoryByIncrease(ctx context.Context, salaryIncreaseID string, companyID string) (contract.SalaryHistory, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryHistoryColumns + ` FROM salary_histories WHERE salary_increase_id = $1 AND company_id = $2`

	var h contract.SalaryHistory
	if err := scanSalaryHistory(q.QueryRow(ctx, query, salaryIncreaseID, companyID), &h); err != nil {
		if isNoRows(err) {
			return contract.SalaryHistory{}, contract.ErrSalaryHistoryNotFound
		}
		return contract.SalaryHistory{}, fmt.Errorf("failed to get salary history: %w", err)
	}

	return h, nil
}

func (r *contractRepository) UpdateSalaryHistoryState(ctx context.Context, id string, companyID string, state contract.SalaryHistoryState) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_histories SET state = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, state)
	if err != nil {
		return fmt.Errorf("failed to update salary history state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contract.ErrSalaryHistoryNotFound
	}
	return nil
}

// ApplySalaryHistory must run inside a transaction; it touches the
// contract, the history and the originating salary increase.
func (r *contractRepository) ApplySalaryHistory(ctx context.Context, history contract.SalaryHistory) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		UPDATE contracts SET wage = $3, sdi = $4, sbc = $4, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, history.ContractID, history.CompanyID, history.NewWage, history.NewSDI)
	if err != nil {
		return fmt.Errorf("failed to apply wage to contract: %w", err)
	}

	_, err = q.Exec(ctx, `
		UPDATE salary_histories SET state = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, history.ID, history.CompanyID, contract.SalaryHistoryStateApplied)
	if err != nil {
		return fmt.Errorf("failed to mark salary history applied: %w", err)
	}

	if history.SalaryIncreaseID != nil {
		_, err = q.Exec(ctx, `
			UPDATE salary_increases SET state = 'applied', updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`, *history.SalaryIncreaseID, history.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to mark salary increase applied: %w", err)
		}
	}

	return nil
}

// ListDueSalaryHistories returns approved histories effective on or before
// date, so a missed day is caught up on the next run.
func (r *contractRepository) ListDueSalaryHistories(ctx context.Context, date time.Time) ([]contract.SalaryHistory, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + salaryHistoryColumns + `
		FROM salary_histories
		WHERE state = $1 AND date_applied <= $2
		ORDER BY date_applied, created_at
	`

	rows, err := q.Query(ctx, query, contract.SalaryHistoryStateApproved, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list due salary histories: %w", err)
	}
	defer rows.Close()

	var histories []contract.SalaryHistory
	for rows.Next() {
		var h contract.SalaryHistory
		if err := scanSalaryHistory(rows, &h); err != nil {
			return nil, err
		}
		histories = append(histories, h)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return histories, nil
}
