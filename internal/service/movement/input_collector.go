package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/movement"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// InputCollector turns approved movements into payslip input lines.
type InputCollector struct {
	movementRepo movement.MovementRepository
}

func NewInputCollector(movementRepo movement.MovementRepository) *InputCollector {
	return &InputCollector{movementRepo: movementRepo}
}

// InputsForPeriod implements payroll.InputProvider. Loans contribute the
// installment capped at the outstanding balance, alimony its amount or
// percentage under its input code, and overtime the approved hours of
// the period summed into HE2 and HE3.
func (c *InputCollector) InputsForPeriod(ctx context.Context, companyID string, employeeID string, dateFrom, dateTo time.Time) ([]payroll.InputLine, error) {
	var inputs []payroll.InputLine
	add := func(line payroll.InputLine) {
		line.Sequence = len(inputs) + 1
		inputs = append(inputs, line)
	}

	loans, err := c.movementRepo.ListApprovedLoans(ctx, employeeID, companyID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	for _, l := range loans {
		amount := decimal.Min(l.Amount, l.Outstanding())
		if !amount.IsPositive() {
			continue
		}
		id := l.ID
		add(payroll.InputLine{
			Code:     l.InputCode,
			Name:     l.Name,
			Amount:   amount,
			Source:   payroll.InputSourceLoan,
			SourceID: &id,
		})
	}

	alimonies, err := c.movementRepo.ListApprovedAlimonies(ctx, employeeID, companyID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list alimonies: %w", err)
	}
	for _, a := range alimonies {
		id := a.ID
		add(payroll.InputLine{
			Code:     a.InputCode,
			Name:     a.Name,
			Amount:   a.Amount,
			Source:   payroll.InputSourceAlimony,
			SourceID: &id,
		})
	}

	sheets, err := c.movementRepo.ListApprovedExtratime(ctx, employeeID, companyID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list extratime: %w", err)
	}
	double, triple := decimal.Zero, decimal.Zero
	for _, sheet := range sheets {
		for _, line := range sheet.Lines {
			if line.State != movement.StateApproved || line.Date.Before(dateFrom) || line.Date.After(dateTo) {
				continue
			}
			switch line.TypeHour {
			case movement.HourDouble:
				double = double.Add(line.Hours)
			case movement.HourTriple:
				triple = triple.Add(line.Hours)
			}
		}
	}
	if double.IsPositive() {
		add(payroll.InputLine{Code: movement.InputCodeDoubleHours, Name: "Double overtime hours", Amount: double, Source: payroll.InputSourceExtratime})
	}
	if triple.IsPositive() {
		add(payroll.InputLine{Code: movement.InputCodeTripleHours, Name: "Triple overtime hours", Amount: triple, Source: payroll.InputSourceExtratime})
	}

	return inputs, nil
}
