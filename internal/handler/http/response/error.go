package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/movement"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-mx/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var configErr *payroll.ConfigurationError
	if errors.As(err, &configErr) {
		UnprocessableEntity(w, configErr.Message, map[string]string{
			"record": configErr.Record,
			"field":  configErr.Field,
		})
		return
	}

	var ruleErr *payroll.RuleError
	if errors.As(err, &ruleErr) {
		UnprocessableEntity(w, ruleErr.Error(), map[string]string{
			"rule_code": ruleErr.Code,
			"rule_name": ruleErr.Name,
		})
		return
	}

	switch {
	// Auth
	case errors.Is(err, jwt.ErrMissingCompany):
		Unauthorized(w, "Company scope missing from token")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployerRegisterNotFound):
		NotFound(w, "Employer register not found")
	case errors.Is(err, employee.ErrInvalidFiscalRegime):
		UnprocessableEntity(w, "Invalid fiscal regime", nil)

	// Contract domain errors
	case errors.Is(err, contract.ErrContractNotFound):
		NotFound(w, "Contract not found")
	case errors.Is(err, contract.ErrAllowanceCatalogNotFound):
		NotFound(w, "Allowance catalog not found")
	case errors.Is(err, contract.ErrSalaryHistoryNotFound):
		NotFound(w, "Salary history not found")
	case errors.Is(err, contract.ErrContractNotOpen):
		Conflict(w, "Contract is not open")
	case errors.Is(err, contract.ErrInvalidWage):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrPayslipRunNotFound):
		NotFound(w, "Payslip batch not found")
	case errors.Is(err, payroll.ErrStructureNotFound):
		NotFound(w, "Payroll structure not found")
	case errors.Is(err, payroll.ErrSettingsNotFound):
		NotFound(w, "Payroll settings not found")
	case errors.Is(err, payroll.ErrPayslipNotEditable):
		Conflict(w, "Payslip is done or cancelled")
	case errors.Is(err, payroll.ErrNoContractsInPeriod):
		UnprocessableEntity(w, "No open contracts in the period", nil)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)
	case errors.Is(err, payroll.ErrConfiguration),
		errors.Is(err, payroll.ErrRuleEvaluation),
		errors.Is(err, payroll.ErrInvalidExpression):
		UnprocessableEntity(w, err.Error(), nil)

	// Movement domain errors
	case errors.Is(err, movement.ErrMovementNotFound):
		NotFound(w, "Movement not found")
	case errors.Is(err, movement.ErrUnknownKind):
		NotFound(w, "Unknown movement kind")
	case errors.Is(err, movement.ErrUnknownAction),
		errors.Is(err, movement.ErrActionNotSupported):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, movement.ErrDeleteNotDraft):
		Conflict(w, "Only draft movements can be deleted")
	case errors.Is(err, movement.ErrInvalidTransition),
		errors.Is(err, movement.ErrSalaryIncreaseApplied):
		Conflict(w, err.Error())
	case errors.Is(err, movement.ErrExtratimeOutOfPeriod),
		errors.Is(err, movement.ErrUndefinedSettlement):
		UnprocessableEntity(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
