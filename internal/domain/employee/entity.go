package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the payroll view of a worker: who they are for the tax
// authority and which IMSS employer register they are enrolled under.
type Employee struct {
	ID                 string
	CompanyID          string
	EmployeeNumber     string
	FirstName          string
	LastName           string
	SecondLastName     *string
	FullName           string
	RFC                string
	CURP               string
	NSS                string
	Lang               string
	FiscalRegime       FiscalRegime
	EmployerRegisterID *string
	Syndicated         bool
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined fields
	EmployerRegister *EmployerRegister
}

// FiscalRegime is the SAT "tipo de régimen" code of the employee.
type FiscalRegime string

const (
	FiscalRegimeSalaries               FiscalRegime = "02"
	FiscalRegimeRetired                FiscalRegime = "03"
	FiscalRegimePensioners             FiscalRegime = "04"
	FiscalRegimeAssimilatedFees        FiscalRegime = "09"
	FiscalRegimeAssimilatedOthers      FiscalRegime = "11"
	FiscalRegimeCompensationSeparation FiscalRegime = "13"
	FiscalRegimeOther                  FiscalRegime = "99"
)

// PaysSocialSecurity reports whether IMSS contributions apply to the regime.
func (r FiscalRegime) PaysSocialSecurity() bool {
	return r == FiscalRegimeSalaries || r == FiscalRegimeCompensationSeparation
}

// Zone of the employer register.
type Zone string

const (
	ZoneMexico Zone = "z1"
	ZoneBorder Zone = "z2"
)

// JobRiskClass enum
type JobRiskClass string

const (
	JobRiskClassI        JobRiskClass = "1"
	JobRiskClassII       JobRiskClass = "2"
	JobRiskClassIII      JobRiskClass = "3"
	JobRiskClassIV       JobRiskClass = "4"
	JobRiskClassV        JobRiskClass = "5"
	JobRiskNotApplicable JobRiskClass = "99"
)

// DefaultJobRiskValue is the premium assigned to a new employer register.
var DefaultJobRiskValue = decimal.RequireFromString("0.54355")

// EmployerRegister - IMSS employer registration ("registro patronal")
type EmployerRegister struct {
	ID           string
	CompanyID    string
	Name         string
	JobRisk      JobRiskClass
	JobRiskValue decimal.Decimal
	Zone         Zone
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
