package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// PeriodType is the payment frequency; it selects the ISR and subsidy tables.
type PeriodType string

const (
	PeriodTypeDaily    PeriodType = "d"
	PeriodTypeWeekly   PeriodType = "w"
	PeriodTypeTenDays  PeriodType = "t"
	PeriodTypeBiweekly PeriodType = "b"
	PeriodTypeMonthly  PeriodType = "m"
	PeriodTypeAnnual   PeriodType = "a"
)

// Standard worked-days codes.
const (
	WorkedDaysUnpaidAbsence       = "FI"
	WorkedDaysUnjustifiedAbsence  = "FJS"
	WorkedDaysMaternityIncapacity = "INC_MAT"
	WorkedDaysIllnessIncapacity   = "INC_EG"
	WorkedDaysWorkRiskIncapacity  = "INC_RT"
	WorkedDaysAttendance          = "WORK100"
	WorkedDaysJustifiedAbsence    = "FJC"
	WorkedDaysSeventhDay          = "SEPT"
	WorkedDaysVacation            = "VAC"
)

// Standard category codes.
const (
	CategoryBasic        = "BASIC"
	CategoryGross        = "GROSS"
	CategoryNet          = "NET"
	CategoryAllowance    = "ALW"
	CategoryDeduction    = "DED"
	CategoryOtherPayment = "OTPAY"
	CategoryCompany      = "IMSS_C"
	CategoryStateTax     = "ISN"
)

// Rule codes the aggregator reads.
const (
	RuleCodeTotalAllowances = "TALW"
	RuleCodeTotalDeductions = "TDED"
	RuleCodeISR             = "D045"
)

// PayslipState enum
type PayslipState string

const (
	PayslipStateDraft  PayslipState = "draft"
	PayslipStateVerify PayslipState = "verify"
	PayslipStateDone   PayslipState = "done"
	PayslipStateCancel PayslipState = "cancel"
)

// Payslip - One employee's payroll for a period.
type Payslip struct {
	ID           string
	CompanyID    string
	EmployeeID   string
	ContractID   *string
	StructureID  string
	PayslipRunID *string
	Name         string
	DateFrom     time.Time
	DateTo       time.Time
	PaymentDay   *time.Time
	PeriodType   PeriodType
	State        PayslipState
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined fields
	Contract   *contract.Contract
	Employee   *employee.Employee
	WorkedDays []WorkedDaysEntry
	Inputs     []InputLine
	Lines      []ResultLine
	// YearToDate holds per-rule totals of the employee's done payslips in
	// the same calendar year, excluding this one.
	YearToDate map[string]decimal.Decimal
}

// DaysInPeriod counts calendar days of the period, both ends included.
func (p Payslip) DaysInPeriod() int {
	return contract.DaysBetween(p.DateFrom, p.DateTo) + 1
}

// Editable reports whether lines may still be (re)computed.
func (p Payslip) Editable() bool {
	return p.State == PayslipStateDraft || p.State == PayslipStateVerify
}

type WorkedDaysEntry struct {
	ID            string
	PayslipID     string
	Sequence      int
	Code          string
	Name          string
	NumberOfDays  decimal.Decimal
	NumberOfHours decimal.Decimal
}

// InputSource names the movement an input line was generated from.
type InputSource string

const (
	InputSourceManual    InputSource = "manual"
	InputSourceLoan      InputSource = "loan"
	InputSourceAlimony   InputSource = "alimony"
	InputSourceExtratime InputSource = "extratime"
	InputSourcePTU       InputSource = "ptu"
)

type InputLine struct {
	ID        string
	PayslipID string
	Sequence  int
	Code      string
	Name      string
	Amount    decimal.Decimal
	Source    InputSource
	SourceID  *string
}

// RuleCategory - Accumulator bucket for rule totals. Amounts added to a
// category also roll up to its parent chain.
type RuleCategory struct {
	ID         string
	CompanyID  string
	Code       string
	Name       string
	ParentCode *string
}

// ConditionSelect enum
type ConditionSelect string

const (
	ConditionNone       ConditionSelect = "none"
	ConditionExpression ConditionSelect = "expression"
	ConditionRange      ConditionSelect = "range"
)

// AmountSelect enum
type AmountSelect string

const (
	AmountFix        AmountSelect = "fix"
	AmountPercentage AmountSelect = "percentage"
	AmountCode       AmountSelect = "code"
)

// SalaryRule - One step of a payroll structure. Expressions are evaluated
// against the running computation context of a payslip.
type SalaryRule struct {
	ID                   string
	CompanyID            string
	StructureID          *string
	Sequence             int
	Code                 string
	Name                 string
	Translations         map[string]string
	CategoryCode         string
	ConditionSelect      ConditionSelect
	ConditionExpr        string
	ConditionRange       string
	ConditionRangeMin    decimal.Decimal
	ConditionRangeMax    decimal.Decimal
	AmountSelect         AmountSelect
	AmountFix            decimal.Decimal
	AmountPercentage     decimal.Decimal
	AmountPercentageBase string
	QuantityExpr         string
	AmountExpr           string
	RateExpr             string
	Exemption            bool
	ExemptPartID         *string
	TaxablePartID        *string
	Hideable             bool
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Joined fields
	ExemptPart  *SalaryRule
	TaxablePart *SalaryRule
}

// NameIn returns the rule name in lang, falling back to the base name.
func (r SalaryRule) NameIn(lang string) string {
	if name, ok := r.Translations[lang]; ok && name != "" {
		return name
	}
	return r.Name
}

// Structure - Ordered rule set a payslip is computed with.
type Structure struct {
	ID         string
	CompanyID  string
	Code       string
	Name       string
	Type       contract.StructureType
	Rules      []SalaryRule
	Categories []RuleCategory
}

// RuleType classifies a payslip line for reporting.
type RuleType string

const (
	RuleTypeAllowance RuleType = "alw"
	RuleTypeDeduction RuleType = "ded"
	RuleTypeTotal     RuleType = "total"
	RuleTypeCompany   RuleType = "company"
	RuleTypeNone      RuleType = "na"
)

// RuleTypeFor derives the line type from the rule category code.
func RuleTypeFor(categoryCode string) RuleType {
	switch categoryCode {
	case CategoryAllowance:
		return RuleTypeAllowance
	case CategoryDeduction:
		return RuleTypeDeduction
	case CategoryNet:
		return RuleTypeTotal
	case CategoryCompany, CategoryStateTax:
		return RuleTypeCompany
	default:
		return RuleTypeNone
	}
}

// ResultLine - Computed payslip line. Lines are replaced as a whole on
// recomputation, never edited.
type ResultLine struct {
	ID            string
	PayslipID     string
	SalaryRuleID  string
	Sequence      int
	Code          string
	Name          string
	CategoryCode  string
	RuleType      RuleType
	Amount        decimal.Decimal
	Quantity      decimal.Decimal
	Rate          decimal.Decimal
	Total         decimal.Decimal
	ExemptAmount  decimal.Decimal
	TaxableAmount decimal.Decimal
	Hideable      bool
	HideRule      bool
	CreatedAt     time.Time
}

// Totals - Category aggregates of a payslip.
type Totals struct {
	AllowanceTotal decimal.Decimal
	DeductionTotal decimal.Decimal
	OtherPayments  decimal.Decimal
	AmountSubtotal decimal.Decimal
	Discount       decimal.Decimal
	Retentions     decimal.Decimal
	AmountTotal    decimal.Decimal
}

// RunState enum
type RunState string

const (
	RunStateDraft  RunState = "draft"
	RunStateVerify RunState = "verify"
	RunStateClose  RunState = "close"
)

// PayslipRun - Batch of payslips generated for one period.
type PayslipRun struct {
	ID          string
	CompanyID   string
	Name        string
	DateFrom    time.Time
	DateTo      time.Time
	StructureID string
	PeriodType  PeriodType
	State       RunState
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	Payslips []Payslip
}

// ContributionKind selects which IMSS total is returned.
type ContributionKind string

const (
	ContributionEmployee  ContributionKind = "employee"
	ContributionCompany   ContributionKind = "company"
	ContributionInfonavit ContributionKind = "infonavit"
)

// ContributionDays are the effective-day counters of one IMSS computation.
// FullDays is reduced by incapacity, DaysLeft by unpaid absence and
// WorkedDays by both.
type ContributionDays struct {
	FullDays   decimal.Decimal
	DaysLeft   decimal.Decimal
	WorkedDays decimal.Decimal
}

// Contribution - IMSS breakdown of one payslip.
type Contribution struct {
	Days       ContributionDays
	BaseCal    decimal.Decimal
	ExcessBase decimal.Decimal

	EmployeeExcess             decimal.Decimal
	EmployeeCashBenefits       decimal.Decimal
	EmployeePensioners         decimal.Decimal
	EmployeeDisabilityLife     decimal.Decimal
	EmployeeUnemploymentOldAge decimal.Decimal
	EmployeeTotal              decimal.Decimal

	EmployerFixedFee           decimal.Decimal
	EmployerExcess             decimal.Decimal
	EmployerCashBenefits       decimal.Decimal
	EmployerPensioners         decimal.Decimal
	EmployerJobRisk            decimal.Decimal
	EmployerDisabilityLife     decimal.Decimal
	EmployerNursery            decimal.Decimal
	EmployerRetirement         decimal.Decimal
	EmployerUnemploymentOldAge decimal.Decimal
	Infonavit                  decimal.Decimal
	EmployerTotal              decimal.Decimal
}
