package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryType enum
type SalaryType string

const (
	SalaryTypeFixed    SalaryType = "fixed"
	SalaryTypeMixed    SalaryType = "mixed"
	SalaryTypeVariable SalaryType = "variable"
)

// StructureType groups contracts by pay frequency; it selects which
// settlement/liquidation structure applies on separation.
type StructureType string

const (
	StructureTypeWeekly   StructureType = "weekly"
	StructureTypeBiweekly StructureType = "biweekly"
	StructureTypeSpecial  StructureType = "special"
)

// State enum
type State string

const (
	StateDraft  State = "draft"
	StateOpen   State = "open"
	StateClose  State = "close"
	StateCancel State = "cancel"
)

// Contract - Employment contract carrying the salary bases used by payroll.
// SDI and SBC are never written by users; they are derived from Wage and
// the allowance catalog tier matching Antiquity.
type Contract struct {
	ID                 string
	CompanyID          string
	EmployeeID         string
	Name               string
	Wage               decimal.Decimal
	SDI                decimal.Decimal
	SBC                decimal.Decimal
	Antiquity          int
	FirstContractDate  *time.Time
	DateStart          time.Time
	DateEnd            *time.Time
	SalaryType         SalaryType
	ContractType       string
	StructureType      StructureType
	PeriodType         string
	AllowanceCatalogID *string
	State              State
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined fields
	AllowanceCatalog *AllowanceCatalog
}

// AntiquityAt returns whole years of service at the given date, counted
// from FirstContractDate. Contracts without a first contract date have
// zero antiquity.
func (c Contract) AntiquityAt(at time.Time) int {
	if c.FirstContractDate == nil {
		return 0
	}
	days := DaysBetween(*c.FirstContractDate, at)
	if days < 0 {
		return 0
	}
	return days / 365
}

// DaysBetween counts calendar days from one date to another, ignoring
// the time of day.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// AllowanceCatalog - Benefits table ("tabla de prestaciones") applied to a contract
type AllowanceCatalog struct {
	ID        string
	CompanyID string
	Name      string
	Lines     []AllowanceCatalogLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowanceCatalogLine is one antiquity tier of the catalog. Bonus is the
// christmas bonus in days, PVP the vacation premium percent.
type AllowanceCatalogLine struct {
	ID        string
	CatalogID string
	Sequence  int
	Antiquity int
	Holidays  decimal.Decimal
	PVP       decimal.Decimal
	Bonus     decimal.Decimal
}

// SalaryHistoryState enum
type SalaryHistoryState string

const (
	SalaryHistoryStateDraft     SalaryHistoryState = "draft"
	SalaryHistoryStateToProcess SalaryHistoryState = "to_process"
	SalaryHistoryStateApproved  SalaryHistoryState = "approved"
	SalaryHistoryStateApplied   SalaryHistoryState = "applied"
	SalaryHistoryStateCancel    SalaryHistoryState = "cancel"
)

// SalaryHistory - Append-only ledger of wage/SDI changes for a contract
type SalaryHistory struct {
	ID               string
	CompanyID        string
	ContractID       string
	EmployeeID       string
	SalaryIncreaseID *string
	DateApplied      time.Time
	OlderWage        decimal.Decimal
	OlderSDI         decimal.Decimal
	NewWage          decimal.Decimal
	NewSDI           decimal.Decimal
	State            SalaryHistoryState
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
