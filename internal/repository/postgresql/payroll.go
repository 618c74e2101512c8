package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== SETTINGS ==========

func (r *payrollRepository) GetSettings(ctx context.Context, companyID string) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, uma, minimum_wage_zone1, minimum_wage_zone2,
			   rates, isr_tables, subsidy_tables, settlement_structures,
			   created_at, updated_at
		FROM payroll_settings
		WHERE company_id = $1
	`

	var s payroll.Settings
	err := q.QueryRow(ctx, query, companyID).Scan(
		&s.ID, &s.CompanyID, &s.UMA, &s.MinimumWageZone1, &s.MinimumWageZone2,
		&s.Rates, &s.ISRTables, &s.SubsidyTables, &s.SettlementStructures,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return payroll.Settings{}, payroll.ErrSettingsNotFound
		}
		return payroll.Settings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) UpsertSettings(ctx context.Context, settings payroll.Settings) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_settings (
			company_id, uma, minimum_wage_zone1, minimum_wage_zone2,
			rates, isr_tables, subsidy_tables, settlement_structures
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id) DO UPDATE SET
			uma = EXCLUDED.uma,
			minimum_wage_zone1 = EXCLUDED.minimum_wage_zone1,
			minimum_wage_zone2 = EXCLUDED.minimum_wage_zone2,
			rates = EXCLUDED.rates,
			isr_tables = EXCLUDED.isr_tables,
			subsidy_tables = EXCLUDED.subsidy_tables,
			settlement_structures = EXCLUDED.settlement_structures,
			updated_at = NOW()
		RETURNING id, company_id, uma, minimum_wage_zone1, minimum_wage_zone2,
			rates, isr_tables, subsidy_tables, settlement_structures,
			created_at, updated_at
	`

	var s payroll.Settings
	err := q.QueryRow(ctx, query,
		settings.CompanyID, settings.UMA, settings.MinimumWageZone1, settings.MinimumWageZone2,
		settings.Rates, nonNilMap(settings.ISRTables), nonNilMap(settings.SubsidyTables), nonNilMap(settings.SettlementStructures),
	).Scan(
		&s.ID, &s.CompanyID, &s.UMA, &s.MinimumWageZone1, &s.MinimumWageZone2,
		&s.Rates, &s.ISRTables, &s.SubsidyTables, &s.SettlementStructures,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}

	return s, nil
}

// nonNilMap keeps jsonb columns as {} instead of null.
func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

// ========== STRUCTURES ==========

const salaryRuleColumns = `
	id, company_id, structure_id, sequence, code, name, translations, category_code,
	condition_select, condition_expr, condition_range, condition_range_min, condition_range_max,
	amount_select, amount_fix, amount_percentage, amount_percentage_base,
	quantity_expr, amount_expr, rate_expr, exemption, exempt_part_id, taxable_part_id,
	hideable, active, created_at, updated_at
`

func scanSalaryRule(row pgx.Row, rule *payroll.SalaryRule) error {
	return row.Scan(
		&rule.ID, &rule.CompanyID, &rule.StructureID, &rule.Sequence, &rule.Code, &rule.Name,
		&rule.Translations, &rule.CategoryCode,
		&rule.ConditionSelect, &rule.ConditionExpr, &rule.ConditionRange, &rule.ConditionRangeMin, &rule.ConditionRangeMax,
		&rule.AmountSelect, &rule.AmountFix, &rule.AmountPercentage, &rule.AmountPercentageBase,
		&rule.QuantityExpr, &rule.AmountExpr, &rule.RateExpr, &rule.Exemption, &rule.ExemptPartID, &rule.TaxablePartID,
		&rule.Hideable, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
	)
}

// GetStructure loads a structure with its active rules in sequence order,
// the exempt/taxable sub-rules they point to and the company categories.
func (r *payrollRepository) GetStructure(ctx context.Context, id string, companyID string) (payroll.Structure, error) {
	q := GetQuerier(ctx, r.db)

	var s payroll.Structure
	err := q.QueryRow(ctx, `
		SELECT id, company_id, code, name, type
		FROM payroll_structures
		WHERE id = $1 AND company_id = $2
	`, id, companyID).Scan(&s.ID, &s.CompanyID, &s.Code, &s.Name, &s.Type)
	if err != nil {
		if isNoRows(err) {
			return payroll.Structure{}, payroll.ErrStructureNotFound
		}
		return payroll.Structure{}, fmt.Errorf("failed to get structure: %w", err)
	}

	s.Rules, err = r.queryRules(ctx, `
		SELECT `+salaryRuleColumns+`
		FROM salary_rules
		WHERE structure_id = $1 AND company_id = $2 AND active = TRUE
		ORDER BY sequence, code
	`, id, companyID)
	if err != nil {
		return payroll.Structure{}, fmt.Errorf("failed to get salary rules: %w", err)
	}

	var partIDs []string
	for _, rule := range s.Rules {
		if rule.ExemptPartID != nil {
			partIDs = append(partIDs, *rule.ExemptPartID)
		}
		if rule.TaxablePartID != nil {
			partIDs = append(partIDs, *rule.TaxablePartID)
		}
	}
	if len(partIDs) > 0 {
		parts, err := r.queryRules(ctx, `
			SELECT `+salaryRuleColumns+`
			FROM salary_rules
			WHERE id = ANY($1) AND company_id = $2
		`, partIDs, companyID)
		if err != nil {
			return payroll.Structure{}, fmt.Errorf("failed to get sub-rules: %w", err)
		}
		byID := make(map[string]payroll.SalaryRule, len(parts))
		for _, p := range parts {
			byID[p.ID] = p
		}
		for i, rule := range s.Rules {
			if rule.ExemptPartID != nil {
				if p, ok := byID[*rule.ExemptPartID]; ok {
					s.Rules[i].ExemptPart = &p
				}
			}
			if rule.TaxablePartID != nil {
				if p, ok := byID[*rule.TaxablePartID]; ok {
					s.Rules[i].TaxablePart = &p
				}
			}
		}
	}

	rows, err := q.Query(ctx, `
		SELECT id, company_id, code, name, parent_code
		FROM rule_categories
		WHERE company_id = $1
		ORDER BY code
	`, companyID)
	if err != nil {
		return payroll.Structure{}, fmt.Errorf("failed to get rule categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c payroll.RuleCategory
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.ParentCode); err != nil {
			return payroll.Structure{}, err
		}
		s.Categories = append(s.Categories, c)
	}

	if err = rows.Err(); err != nil {
		return payroll.Structure{}, err
	}

	return s, nil
}

func (r *payrollRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]payroll.SalaryRule, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []payroll.SalaryRule
	for rows.Next() {
		var rule payroll.SalaryRule
		if err := scanSalaryRule(rows, &rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

// ========== RUNS ==========

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.PayslipRun) (payroll.PayslipRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslip_runs (id, company_id, name, date_from, date_to, structure_id, period_type, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, company_id, name, date_from, date_to, structure_id, period_type, state, created_at, updated_at
	`

	var created payroll.PayslipRun
	err := q.QueryRow(ctx, query,
		run.ID, run.CompanyID, run.Name, run.DateFrom, run.DateTo, run.StructureID, run.PeriodType, run.State,
	).Scan(
		&created.ID, &created.CompanyID, &created.Name, &created.DateFrom, &created.DateTo,
		&created.StructureID, &created.PeriodType, &created.State, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return payroll.PayslipRun{}, fmt.Errorf("failed to create payslip run: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string, companyID string) (payroll.PayslipRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, date_from, date_to, structure_id, period_type, state, created_at, updated_at
		FROM payslip_runs
		WHERE id = $1 AND company_id = $2
	`

	var run payroll.PayslipRun
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&run.ID, &run.CompanyID, &run.Name, &run.DateFrom, &run.DateTo,
		&run.StructureID, &run.PeriodType, &run.State, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return payroll.PayslipRun{}, payroll.ErrPayslipRunNotFound
		}
		return payroll.PayslipRun{}, fmt.Errorf("failed to get payslip run: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE payslip_run_id = $1 AND company_id = $2 ORDER BY name`, id, companyID)
	if err != nil {
		return payroll.PayslipRun{}, fmt.Errorf("failed to get run payslips: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p payroll.Payslip
		if err := scanPayslip(rows, &p); err != nil {
			return payroll.PayslipRun{}, err
		}
		run.Payslips = append(run.Payslips, p)
	}

	if err = rows.Err(); err != nil {
		return payroll.PayslipRun{}, err
	}

	return run, nil
}

// ========== PAYSLIPS ==========

const payslipColumns = `
	id, company_id, employee_id, contract_id, structure_id, payslip_run_id, name,
	date_from, date_to, payment_day, period_type, state, created_at, updated_at
`

func scanPayslip(row pgx.Row, p *payroll.Payslip) error {
	return row.Scan(
		&p.ID, &p.CompanyID, &p.EmployeeID, &p.ContractID, &p.StructureID, &p.PayslipRunID, &p.Name,
		&p.DateFrom, &p.DateTo, &p.PaymentDay, &p.PeriodType, &p.State, &p.CreatedAt, &p.UpdatedAt,
	)
}

// CreatePayslip inserts the payslip with its worked days and inputs.
func (r *payrollRepository) CreatePayslip(ctx context.Context, payslip payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslips (
			id, company_id, employee_id, contract_id, structure_id, payslip_run_id, name,
			date_from, date_to, payment_day, period_type, state
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + payslipColumns

	var created payroll.Payslip
	err := scanPayslip(q.QueryRow(ctx, query,
		payslip.ID, payslip.CompanyID, payslip.EmployeeID, payslip.ContractID, payslip.StructureID,
		payslip.PayslipRunID, payslip.Name, payslip.DateFrom, payslip.DateTo, payslip.PaymentDay,
		payslip.PeriodType, payslip.State,
	), &created)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	for _, wd := range payslip.WorkedDays {
		if wd.ID == "" {
			wd.ID = uuid.Must(uuid.NewV7()).String()
		}
		wd.PayslipID = created.ID
		_, err := q.Exec(ctx, `
			INSERT INTO payslip_worked_days (id, payslip_id, sequence, code, name, number_of_days, number_of_hours)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, wd.ID, wd.PayslipID, wd.Sequence, wd.Code, wd.Name, wd.NumberOfDays, wd.NumberOfHours)
		if err != nil {
			return payroll.Payslip{}, fmt.Errorf("failed to create worked days: %w", err)
		}
		created.WorkedDays = append(created.WorkedDays, wd)
	}

	for _, in := range payslip.Inputs {
		if in.ID == "" {
			in.ID = uuid.Must(uuid.NewV7()).String()
		}
		in.PayslipID = created.ID
		_, err := q.Exec(ctx, `
			INSERT INTO payslip_inputs (id, payslip_id, sequence, code, name, amount, source, source_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, in.ID, in.PayslipID, in.Sequence, in.Code, in.Name, in.Amount, in.Source, in.SourceID)
		if err != nil {
			return payroll.Payslip{}, fmt.Errorf("failed to create payslip input: %w", err)
		}
		created.Inputs = append(created.Inputs, in)
	}

	return created, nil
}

// GetPayslipByID loads the payslip with worked days, inputs and lines.
// Contract and employee are attached by the caller.
func (r *payrollRepository) GetPayslipByID(ctx context.Context, id string, companyID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	var p payroll.Payslip
	err := scanPayslip(q.QueryRow(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE id = $1 AND company_id = $2`, id, companyID), &p)
	if err != nil {
		if isNoRows(err) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	if p.WorkedDays, err = r.getWorkedDays(ctx, q, id); err != nil {
		return payroll.Payslip{}, err
	}
	if p.Inputs, err = r.getInputs(ctx, q, id); err != nil {
		return payroll.Payslip{}, err
	}
	if p.Lines, err = r.getLines(ctx, q, id); err != nil {
		return payroll.Payslip{}, err
	}

	return p, nil
}

func (r *payrollRepository) getWorkedDays(ctx context.Context, q database.Querier, payslipID string) ([]payroll.WorkedDaysEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, payslip_id, sequence, code, name, number_of_days, number_of_hours
		FROM payslip_worked_days
		WHERE payslip_id = $1
		ORDER BY sequence
	`, payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to get worked days: %w", err)
	}
	defer rows.Close()

	var entries []payroll.WorkedDaysEntry
	for rows.Next() {
		var wd payroll.WorkedDaysEntry
		if err := rows.Scan(&wd.ID, &wd.PayslipID, &wd.Sequence, &wd.Code, &wd.Name, &wd.NumberOfDays, &wd.NumberOfHours); err != nil {
			return nil, err
		}
		entries = append(entries, wd)
	}
	return entries, rows.Err()
}

func (r *payrollRepository) getInputs(ctx context.Context, q database.Querier, payslipID string) ([]payroll.InputLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, payslip_id, sequence, code, name, amount, source, source_id
		FROM payslip_inputs
		WHERE payslip_id = $1
		ORDER BY sequence
	`, payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payslip inputs: %w", err)
	}
	defer rows.Close()

	var inputs []payroll.InputLine
	for rows.Next() {
		var in payroll.InputLine
		if err := rows.Scan(&in.ID, &in.PayslipID, &in.Sequence, &in.Code, &in.Name, &in.Amount, &in.Source, &in.SourceID); err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

func (r *payrollRepository) getLines(ctx context.Context, q database.Querier, payslipID string) ([]payroll.ResultLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, payslip_id, salary_rule_id, sequence, code, name, category_code, rule_type,
			   amount, quantity, rate, total, exempt_amount, taxable_amount, hideable, hide_rule, created_at
		FROM payslip_lines
		WHERE payslip_id = $1
		ORDER BY sequence, created_at
	`, payslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payslip lines: %w", err)
	}
	defer rows.Close()

	var lines []payroll.ResultLine
	for rows.Next() {
		var l payroll.ResultLine
		err := rows.Scan(
			&l.ID, &l.PayslipID, &l.SalaryRuleID, &l.Sequence, &l.Code, &l.Name, &l.CategoryCode, &l.RuleType,
			&l.Amount, &l.Quantity, &l.Rate, &l.Total, &l.ExemptAmount, &l.TaxableAmount, &l.Hideable, &l.HideRule, &l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *payrollRepository) UpdatePayslipState(ctx context.Context, id string, companyID string, state payroll.PayslipState) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payslips SET state = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, state)
	if err != nil {
		return fmt.Errorf("failed to update payslip state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipNotFound
	}
	return nil
}

// ReplaceLines supersedes every previous line of the payslip. Callers run
// it inside a transaction so readers never see a partial set.
func (r *payrollRepository) ReplaceLines(ctx context.Context, payslipID string, companyID string, lines []payroll.ResultLine) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		DELETE FROM payslip_lines l
		USING payslips p
		WHERE l.payslip_id = p.id AND p.id = $1 AND p.company_id = $2
	`, payslipID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payslip lines: %w", err)
	}

	query := `
		INSERT INTO payslip_lines (
			id, payslip_id, salary_rule_id, sequence, code, name, category_code, rule_type,
			amount, quantity, rate, total, exempt_amount, taxable_amount, hideable, hide_rule
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	for _, l := range lines {
		_, err := q.Exec(ctx, query,
			l.ID, payslipID, l.SalaryRuleID, l.Sequence, l.Code, l.Name, l.CategoryCode, l.RuleType,
			l.Amount, l.Quantity, l.Rate, l.Total, l.ExemptAmount, l.TaxableAmount, l.Hideable, l.HideRule,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payslip line %s: %w", l.Code, err)
		}
	}

	return nil
}

// ToggleHideRule flips hide_rule on the hideable lines of the payslip and
// returns how many lines changed.
func (r *payrollRepository) ToggleHideRule(ctx context.Context, payslipID string, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payslip_lines l
		SET hide_rule = NOT l.hide_rule
		FROM payslips p
		WHERE l.payslip_id = p.id AND p.id = $1 AND p.company_id = $2 AND l.hideable = TRUE
	`, payslipID, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to toggle hide rule: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetYearToDate sums line totals per rule code over the employee's done
// payslips ending in year.
func (r *payrollRepository) GetYearToDate(ctx context.Context, employeeID string, companyID string, year int, excludePayslipID string) (map[string]decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	rows, err := q.Query(ctx, `
		SELECT l.code, COALESCE(SUM(l.total), 0)
		FROM payslip_lines l
		JOIN payslips p ON p.id = l.payslip_id
		WHERE p.employee_id = $1 AND p.company_id = $2 AND p.state = $3
			AND p.date_to BETWEEN $4 AND $5
			AND p.id::text <> $6
		GROUP BY l.code
	`, employeeID, companyID, payroll.PayslipStateDone, from, to, excludePayslipID)
	if err != nil {
		return nil, fmt.Errorf("failed to get year to date totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code string
		var total decimal.Decimal
		if err := rows.Scan(&code, &total); err != nil {
			return nil, err
		}
		totals[code] = total
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}
