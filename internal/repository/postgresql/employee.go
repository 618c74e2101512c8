package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, company_id, employee_number, first_name, last_name, second_last_name, full_name,
	rfc, curp, nss, lang, fiscal_regime, employer_register_id, syndicated, created_at, updated_at
`

func scanEmployee(row pgx.Row, emp *employee.Employee) error {
	return row.Scan(
		&emp.ID, &emp.CompanyID, &emp.EmployeeNumber, &emp.FirstName, &emp.LastName,
		&emp.SecondLastName, &emp.FullName, &emp.RFC, &emp.CURP, &emp.NSS, &emp.Lang,
		&emp.FiscalRegime, &emp.EmployerRegisterID, &emp.Syndicated, &emp.CreatedAt, &emp.UpdatedAt,
	)
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND company_id = $2`

	var emp employee.Employee
	if err := scanEmployee(q.QueryRow(ctx, query, id, companyID), &emp); err != nil {
		if isNoRows(err) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return emp, nil
}

// GetByIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDs(ctx context.Context, ids []string, companyID string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ANY($1) AND company_id = $2`

	rows, err := q.Query(ctx, query, ids, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var emp employee.Employee
		if err := scanEmployee(rows, &emp); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// GetEmployerRegister implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetEmployerRegister(ctx context.Context, id string, companyID string) (employee.EmployerRegister, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, company_id, name, job_risk, job_risk_value, zone, active, created_at, updated_at
		FROM employer_registers
		WHERE id = $1 AND company_id = $2
	`

	var reg employee.EmployerRegister
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&reg.ID, &reg.CompanyID, &reg.Name, &reg.JobRisk, &reg.JobRiskValue, &reg.Zone, &reg.Active,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return employee.EmployerRegister{}, employee.ErrEmployerRegisterNotFound
		}
		return employee.EmployerRegister{}, fmt.Errorf("failed to get employer register: %w", err)
	}

	return reg, nil
}
