package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrPayslipNotFound     = errors.New("payslip not found")
	ErrPayslipNotEditable  = errors.New("payslip is done or cancelled and cannot be recomputed")
	ErrPayslipRunNotFound  = errors.New("payslip batch not found")
	ErrStructureNotFound   = errors.New("payroll structure not found")
	ErrSettingsNotFound    = errors.New("payroll settings not found")
	ErrNoContractsInPeriod = errors.New("no open contracts in the period")
	ErrInvalidPeriod       = errors.New("invalid payroll period")
	ErrRuleEvaluation      = errors.New("salary rule evaluation failed")
	ErrInvalidExpression   = errors.New("invalid salary rule expression")
	ErrConfiguration       = errors.New("payroll configuration error")
)

// ConfigurationError is a user-correctable setup problem: a payslip without
// contract, an unknown contribution kind or missing UMA/rate values.
type ConfigurationError struct {
	Record  string
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s (%s.%s): %s", ErrConfiguration, e.Record, e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// RuleError wraps a failure of one salary rule.
type RuleError struct {
	Code string
	Name string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: rule %s (%s): %v", ErrRuleEvaluation, e.Code, e.Name, e.Err)
}

func (e *RuleError) Unwrap() []error {
	return []error{ErrRuleEvaluation, e.Err}
}
