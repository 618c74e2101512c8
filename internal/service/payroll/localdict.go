package payroll

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// localDict is the running context of one evaluation pass. It is owned by
// a single pass and must not be shared between payslips.
type localDict struct {
	slip          payroll.Payslip
	settings      payroll.Settings
	contributions *ContributionCalculator

	variables  map[string]interface{}
	rules      map[string]decimal.Decimal
	categories map[string]decimal.Decimal
	parents    map[string]string
	workedDays map[string]payroll.WorkedDaysEntry
	inputs     map[string]decimal.Decimal

	functions map[string]govaluate.ExpressionFunction
	compiled  map[string]*govaluate.EvaluableExpression
}

func newLocalDict(slip payroll.Payslip, categories []payroll.RuleCategory, settings payroll.Settings, contributions *ContributionCalculator) *localDict {
	d := &localDict{
		slip:          slip,
		settings:      settings,
		contributions: contributions,
		rules:         make(map[string]decimal.Decimal),
		categories:    make(map[string]decimal.Decimal),
		parents:       make(map[string]string),
		workedDays:    make(map[string]payroll.WorkedDaysEntry),
		inputs:        make(map[string]decimal.Decimal),
		compiled:      make(map[string]*govaluate.EvaluableExpression),
	}

	for _, c := range categories {
		if c.ParentCode != nil {
			d.parents[c.Code] = *c.ParentCode
		}
	}

	// The last entry for a code wins.
	for _, wd := range slip.WorkedDays {
		d.workedDays[wd.Code] = wd
	}
	for _, in := range slip.Inputs {
		d.inputs[in.Code] = d.inputs[in.Code].Add(in.Amount)
	}

	d.variables = map[string]interface{}{
		"uma":            settings.UMA.InexactFloat64(),
		"min_wage":       settings.MinimumWageZone1.InexactFloat64(),
		"min_wage_z2":    settings.MinimumWageZone2.InexactFloat64(),
		"days_in_period": float64(slip.DaysInPeriod()),
		"period_type":    string(slip.PeriodType),
	}
	if ct := slip.Contract; ct != nil {
		d.variables["wage"] = ct.Wage.InexactFloat64()
		d.variables["sdi"] = ct.SDI.InexactFloat64()
		d.variables["sbc"] = ct.SBC.InexactFloat64()
		d.variables["antiquity"] = float64(ct.Antiquity)
		d.variables["salary_type"] = string(ct.SalaryType)
		d.variables["contract_type"] = ct.ContractType
		d.variables["structure_type"] = string(ct.StructureType)
	}
	if emp := slip.Employee; emp != nil {
		d.variables["fiscal_regime"] = string(emp.FiscalRegime)
		d.variables["syndicated"] = emp.Syndicated
	}

	d.functions = d.bindFunctions()
	return d
}

// Get implements govaluate.Parameters. Identifiers resolve to the flat
// contract/employee variables first, then to totals of rules computed so
// far. Anything else is an error.
func (d *localDict) Get(name string) (interface{}, error) {
	if v, ok := d.variables[name]; ok {
		return v, nil
	}
	if v, ok := d.rules[name]; ok {
		return v.InexactFloat64(), nil
	}
	return nil, fmt.Errorf("name '%s' is not defined", name)
}

// addToCategory accumulates amount on code and every ancestor category.
func (d *localDict) addToCategory(code string, amount decimal.Decimal) {
	seen := make(map[string]bool)
	for code != "" && !seen[code] {
		seen[code] = true
		d.categories[code] = d.categories[code].Add(amount)
		code = d.parents[code]
	}
}

func (d *localDict) compile(expr string) (*govaluate.EvaluableExpression, error) {
	if e, ok := d.compiled[expr]; ok {
		return e, nil
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, d.functions)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", payroll.ErrInvalidExpression, expr, err)
	}
	d.compiled[expr] = e
	return e, nil
}

func (d *localDict) eval(expr string) (interface{}, error) {
	e, err := d.compile(strings.TrimSpace(expr))
	if err != nil {
		return nil, err
	}
	return e.Eval(d)
}

func (d *localDict) evalNumber(expr string) (decimal.Decimal, error) {
	v, err := d.eval(expr)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal(v)
}

func (d *localDict) evalBool(expr string) (bool, error) {
	v, err := d.eval(expr)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("condition %q returned %T, want a boolean", expr, v)
	}
}

func (d *localDict) bindFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"round": roundFunc,
		"min":   minFunc,
		"max":   maxFunc,
		"abs":   absFunc,
		"worked_days": d.codeLookup(func(code string) decimal.Decimal {
			return d.workedDays[code].NumberOfDays
		}),
		"worked_hours": d.codeLookup(func(code string) decimal.Decimal {
			return d.workedDays[code].NumberOfHours
		}),
		"inputs": d.codeLookup(func(code string) decimal.Decimal {
			return d.inputs[code]
		}),
		"categories": d.codeLookup(func(code string) decimal.Decimal {
			return d.categories[code]
		}),
		"rules": d.codeLookup(func(code string) decimal.Decimal {
			return d.rules[code]
		}),
		"payslips": d.codeLookup(func(code string) decimal.Decimal {
			return d.slip.YearToDate[code]
		}),
		"isr": func(args ...interface{}) (interface{}, error) {
			base, err := singleNumber("isr", args)
			if err != nil {
				return nil, err
			}
			v, err := d.settings.ISR(d.slip.PeriodType, base)
			if err != nil {
				return nil, err
			}
			return v.InexactFloat64(), nil
		},
		"subsidy": func(args ...interface{}) (interface{}, error) {
			base, err := singleNumber("subsidy", args)
			if err != nil {
				return nil, err
			}
			v, err := d.settings.Subsidy(d.slip.PeriodType, base)
			if err != nil {
				return nil, err
			}
			return v.InexactFloat64(), nil
		},
		"imss": func(args ...interface{}) (interface{}, error) {
			kind, err := singleString("imss", args)
			if err != nil {
				return nil, err
			}
			v, err := d.contributions.Compute(d.slip, payroll.ContributionKind(kind))
			if err != nil {
				return nil, err
			}
			return v.InexactFloat64(), nil
		},
	}
}

// codeLookup adapts a by-code view into a one-argument expression
// function. Unknown codes read as zero.
func (d *localDict) codeLookup(view func(code string) decimal.Decimal) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		code, err := singleString("lookup", args)
		if err != nil {
			return nil, err
		}
		return view(code).InexactFloat64(), nil
	}
}

func singleString(fn string, args []interface{}) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s() takes exactly one argument, %d given", fn, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%s() argument must be a code string", fn)
	}
	return s, nil
}

func singleNumber(fn string, args []interface{}) (decimal.Decimal, error) {
	if len(args) != 1 {
		return decimal.Zero, fmt.Errorf("%s() takes exactly one argument, %d given", fn, len(args))
	}
	return toDecimal(args[0])
}

// govaluate yields +Inf or NaN where a division by zero would raise.
var errDivisionByZero = errors.New("division by zero")

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, errDivisionByZero
		}
		return decimal.NewFromFloat(n), nil
	case bool:
		if n {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("expected a number, got %T", v)
	}
}

func roundFunc(args ...interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("round() takes one or two arguments, %d given", len(args))
	}
	x, err := toDecimal(args[0])
	if err != nil {
		return nil, err
	}
	places := int32(0)
	if len(args) == 2 {
		p, err := toDecimal(args[1])
		if err != nil {
			return nil, err
		}
		places = int32(p.IntPart())
	}
	return x.Round(places).InexactFloat64(), nil
}

func minFunc(args ...interface{}) (interface{}, error) {
	return fold("min", args, decimal.Min)
}

func maxFunc(args ...interface{}) (interface{}, error) {
	return fold("max", args, decimal.Max)
}

func fold(fn string, args []interface{}, pick func(first decimal.Decimal, rest ...decimal.Decimal) decimal.Decimal) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s() expects at least one argument", fn)
	}
	values := make([]decimal.Decimal, 0, len(args))
	for _, a := range args {
		v, err := toDecimal(a)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return pick(values[0], values[1:]...).InexactFloat64(), nil
}

func absFunc(args ...interface{}) (interface{}, error) {
	x, err := singleNumber("abs", args)
	if err != nil {
		return nil, err
	}
	return x.Abs().InexactFloat64(), nil
}
