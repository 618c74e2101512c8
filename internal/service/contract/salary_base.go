package contract

import (
	"sort"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/shopspring/decimal"
)

var daysInYear = decimal.NewFromInt(365)

// SalaryBase is the outcome of one SDI/SBC derivation.
type SalaryBase struct {
	Tier   contract.AllowanceCatalogLine
	Factor decimal.Decimal
	SDI    decimal.Decimal
	SBC    decimal.Decimal
}

// SalaryBaseCalculator derives the daily integrated salary from wage and
// the allowance catalog tier matching the contract antiquity.
type SalaryBaseCalculator struct{}

// FindTier returns the first line, by ascending antiquity, whose threshold
// is strictly greater than antiquity.
func (SalaryBaseCalculator) FindTier(lines []contract.AllowanceCatalogLine, antiquity int) (contract.AllowanceCatalogLine, bool) {
	sorted := make([]contract.AllowanceCatalogLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Antiquity != sorted[j].Antiquity {
			return sorted[i].Antiquity < sorted[j].Antiquity
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})

	for _, line := range sorted {
		if line.Antiquity > antiquity {
			return line, true
		}
	}
	return contract.AllowanceCatalogLine{}, false
}

// IntegrationFactor is 1 + bonus/365 + (holidays × pvp%)/365, each
// proportion rounded to 4 places.
func (SalaryBaseCalculator) IntegrationFactor(line contract.AllowanceCatalogLine) decimal.Decimal {
	bonus := line.Bonus.Div(daysInYear).Round(4)
	premium := line.Holidays.Mul(line.PVP).Div(decimal.NewFromInt(100)).Div(daysInYear).Round(4)
	return decimal.NewFromInt(1).Add(bonus).Add(premium)
}

// Compute returns the salary base for wage at the given antiquity. ok is
// false when no catalog tier applies.
func (c SalaryBaseCalculator) Compute(wage decimal.Decimal, antiquity int, lines []contract.AllowanceCatalogLine) (SalaryBase, bool) {
	tier, ok := c.FindTier(lines, antiquity)
	if !ok {
		return SalaryBase{}, false
	}
	factor := c.IntegrationFactor(tier)
	sdi := wage.Mul(factor)
	return SalaryBase{Tier: tier, Factor: factor, SDI: sdi, SBC: sdi}, true
}

// UpdateBase recomputes SDI and SBC of ct from its wage and catalog. When
// no tier applies ct is returned untouched and ok is false.
func (c SalaryBaseCalculator) UpdateBase(ct contract.Contract) (contract.Contract, bool) {
	if ct.AllowanceCatalog == nil {
		return ct, false
	}
	base, ok := c.Compute(ct.Wage, ct.Antiquity, ct.AllowanceCatalog.Lines)
	if !ok {
		return ct, false
	}
	ct.SDI = base.SDI
	ct.SBC = base.SBC
	return ct, true
}
