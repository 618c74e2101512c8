package employee

import "context"

// EmployeeRepository defines data access methods for employees.
// All methods include companyID parameter to prevent cross-company data access attacks.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetByIDs(ctx context.Context, ids []string, companyID string) ([]Employee, error)
	GetEmployerRegister(ctx context.Context, id string, companyID string) (EmployerRegister, error)
}
