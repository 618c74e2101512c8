package payroll

import (
	"errors"
	"sort"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rule codes that only seed the context and never become payslip lines.
var syntheticCodes = map[string]bool{
	payroll.CategoryBasic: true,
	payroll.CategoryGross: true,
	payroll.CategoryNet:   true,
}

// RuleEvaluator runs a structure's salary rules over a payslip. Settings
// are fixed for the evaluator's lifetime so every payslip of a pass sees
// the same UMA and rate table.
type RuleEvaluator struct {
	settings      payroll.Settings
	contributions *ContributionCalculator
}

func NewRuleEvaluator(settings payroll.Settings) *RuleEvaluator {
	return &RuleEvaluator{
		settings:      settings,
		contributions: NewContributionCalculator(settings),
	}
}

// Evaluate computes the payslip lines for rules in ascending sequence.
// Each rule may read the totals of rules evaluated before it; ordering by
// sequence is the only dependency resolution. Lines keep the order in
// which their codes were first produced; a repeated code keeps the last
// values.
func (e *RuleEvaluator) Evaluate(slip payroll.Payslip, structure payroll.Structure) ([]payroll.ResultLine, error) {
	if slip.Contract == nil {
		return nil, &payroll.ConfigurationError{
			Record:  "payslip " + slip.Name,
			Field:   "contract_id",
			Message: "there is no contract set on the payslip",
		}
	}

	dict := newLocalDict(slip, structure.Categories, e.settings, e.contributions)

	rules := make([]payroll.SalaryRule, len(structure.Rules))
	copy(rules, structure.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Sequence < rules[j].Sequence })

	lang := ""
	if slip.Employee != nil {
		lang = slip.Employee.Lang
	}

	var lines []payroll.ResultLine
	position := make(map[string]int)

	for _, rule := range rules {
		ok, err := dict.satisfyCondition(rule)
		if err != nil {
			return nil, ruleError(rule, err)
		}
		if !ok {
			continue
		}

		amount, qty, rate, err := dict.computeRule(rule)
		if err != nil {
			return nil, ruleError(rule, err)
		}

		total := amount.Mul(qty).Mul(rate).Div(hundred)
		previous := dict.rules[rule.Code]
		dict.rules[rule.Code] = total
		dict.addToCategory(rule.CategoryCode, total.Sub(previous))

		if syntheticCodes[rule.Code] {
			continue
		}

		line := payroll.ResultLine{
			PayslipID:    slip.ID,
			SalaryRuleID: rule.ID,
			Sequence:     rule.Sequence,
			Code:         rule.Code,
			Name:         rule.NameIn(lang),
			CategoryCode: rule.CategoryCode,
			RuleType:     payroll.RuleTypeFor(rule.CategoryCode),
			Amount:       amount,
			Quantity:     qty,
			Rate:         rate,
			Total:        total,
			Hideable:     rule.Hideable,
			HideRule:     rule.Hideable,
		}
		if rule.CategoryCode == payroll.CategoryAllowance {
			exempt, taxable, err := dict.splitExemption(rule, total)
			if err != nil {
				return nil, ruleError(rule, err)
			}
			line.ExemptAmount = exempt
			line.TaxableAmount = taxable
		}

		if i, dup := position[rule.Code]; dup {
			lines[i] = line
			continue
		}
		position[rule.Code] = len(lines)
		lines = append(lines, line)
	}

	return lines, nil
}

func ruleError(rule payroll.SalaryRule, err error) error {
	return &payroll.RuleError{Code: rule.Code, Name: rule.Name, Err: err}
}

func (d *localDict) satisfyCondition(rule payroll.SalaryRule) (bool, error) {
	switch rule.ConditionSelect {
	case payroll.ConditionNone, "":
		return true, nil
	case payroll.ConditionExpression:
		return d.evalBool(rule.ConditionExpr)
	case payroll.ConditionRange:
		v, err := d.evalNumber(rule.ConditionRange)
		if err != nil {
			return false, err
		}
		return v.GreaterThanOrEqual(rule.ConditionRangeMin) && v.LessThanOrEqual(rule.ConditionRangeMax), nil
	default:
		return false, &payroll.ConfigurationError{Record: "salary rule " + rule.Code, Field: "condition_select", Message: "unknown condition type " + string(rule.ConditionSelect)}
	}
}

// computeRule returns (amount, quantity, rate). Quantity and rate start
// at 1 and 100 on every rule.
func (d *localDict) computeRule(rule payroll.SalaryRule) (amount, qty, rate decimal.Decimal, err error) {
	qty = decimal.NewFromInt(1)
	rate = hundred

	if rule.QuantityExpr != "" {
		if qty, err = d.evalNumber(rule.QuantityExpr); err != nil {
			return
		}
	}

	switch rule.AmountSelect {
	case payroll.AmountFix:
		amount = rule.AmountFix
	case payroll.AmountPercentage:
		if amount, err = d.evalNumber(rule.AmountPercentageBase); err != nil {
			return
		}
		rate = rule.AmountPercentage
	case payroll.AmountCode:
		if rule.AmountExpr == "" {
			err = &payroll.ConfigurationError{Record: "salary rule " + rule.Code, Field: "amount_expr", Message: "code amount without expression"}
			return
		}
		if amount, err = d.evalNumber(rule.AmountExpr); err != nil {
			return
		}
		if rule.RateExpr != "" {
			if rate, err = d.evalNumber(rule.RateExpr); err != nil {
				return
			}
		}
	default:
		err = &payroll.ConfigurationError{Record: "salary rule " + rule.Code, Field: "amount_select", Message: "unknown amount type " + string(rule.AmountSelect)}
	}
	return
}

// splitExemption returns the ISR exempt and taxable parts of an allowance
// line. Without an exemption the whole total is taxable.
func (d *localDict) splitExemption(rule payroll.SalaryRule, total decimal.Decimal) (exempt, taxable decimal.Decimal, err error) {
	if !rule.Exemption || rule.ExemptPart == nil {
		return decimal.Zero, total, nil
	}

	if exempt, err = d.subRuleTotal(*rule.ExemptPart); err != nil {
		return
	}
	exempt = decimal.Min(exempt, total)

	if rule.TaxablePart != nil {
		taxable, err = d.subRuleTotal(*rule.TaxablePart)
		return
	}
	taxable = decimal.Max(decimal.Zero, total.Sub(exempt))
	return
}

func (d *localDict) subRuleTotal(rule payroll.SalaryRule) (decimal.Decimal, error) {
	ok, err := d.satisfyCondition(rule)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	amount, qty, rate, err := d.computeRule(rule)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(qty).Mul(rate).Div(hundred), nil
}

// ValidateStructure compiles every rule expression of the structure,
// including exempt and taxable sub-rules, without evaluating anything.
func ValidateStructure(structure payroll.Structure) error {
	dict := newLocalDict(payroll.Payslip{}, nil, payroll.Settings{}, nil)
	var errs []error
	var check func(rule payroll.SalaryRule)
	check = func(rule payroll.SalaryRule) {
		for _, expr := range []string{rule.ConditionExpr, rule.ConditionRange, rule.AmountPercentageBase, rule.QuantityExpr, rule.AmountExpr, rule.RateExpr} {
			if expr == "" {
				continue
			}
			if _, err := dict.compile(expr); err != nil {
				errs = append(errs, ruleError(rule, err))
			}
		}
		if rule.ExemptPart != nil {
			check(*rule.ExemptPart)
		}
		if rule.TaxablePart != nil {
			check(*rule.TaxablePart)
		}
	}
	for _, rule := range structure.Rules {
		check(rule)
	}
	return errors.Join(errs...)
}
