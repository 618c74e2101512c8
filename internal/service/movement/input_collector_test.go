package movement

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/movement"
	"github.com/cmlabs-hris/payroll-mx/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputsForPeriod(t *testing.T) {
	repo := newFakeMovementRepo()
	approve := func(kind movement.Kind, id string) {
		repo.states[key(kind, id)] = movement.StateApproved
	}

	repo.loans["loan-1"] = movement.Loan{ID: "loan-1", EmployeeID: "employee-1", Name: "Loan A", InputCode: "D008",
		TotalAmount: dec("1000"), TotalPaid: dec("800"), Amount: dec("500")}
	approve(movement.KindLoan, "loan-1")
	repo.loans["loan-2"] = movement.Loan{ID: "loan-2", EmployeeID: "employee-1", Name: "Loan paid", InputCode: "D008",
		TotalAmount: dec("1000"), TotalPaid: dec("1000"), Amount: dec("500")}
	approve(movement.KindLoan, "loan-2")

	repo.alimonies["alimony-1"] = movement.Alimony{ID: "alimony-1", EmployeeID: "employee-1", Name: "Alimony 1/2024",
		InputCode: "D007", Amount: dec("20"), AmountType: movement.AlimonyPercent}
	approve(movement.KindAlimony, "alimony-1")

	repo.sheets["extra-1"] = movement.Extratime{ID: "extra-1", EmployeeID: "employee-1", Lines: []movement.ExtratimeLine{
		{Date: date(2024, time.January, 2), Hours: dec("2"), TypeHour: movement.HourDouble, State: movement.StateApproved},
		{Date: date(2024, time.January, 3), Hours: dec("1.5"), TypeHour: movement.HourDouble, State: movement.StateApproved},
		{Date: date(2024, time.January, 4), Hours: dec("1"), TypeHour: movement.HourTriple, State: movement.StateApproved},
		{Date: date(2024, time.January, 9), Hours: dec("4"), TypeHour: movement.HourDouble, State: movement.StateApproved},
		{Date: date(2024, time.January, 5), Hours: dec("3"), TypeHour: movement.HourTriple, State: movement.StateDraft},
	}}
	approve(movement.KindExtratime, "extra-1")

	// Draft movements and other employees are ignored.
	repo.loans["loan-3"] = movement.Loan{ID: "loan-3", EmployeeID: "employee-1", InputCode: "D008", Amount: dec("100")}
	repo.states[key(movement.KindLoan, "loan-3")] = movement.StateDraft
	repo.loans["loan-4"] = movement.Loan{ID: "loan-4", EmployeeID: "employee-2", InputCode: "D008", Amount: dec("100")}
	approve(movement.KindLoan, "loan-4")

	collector := NewInputCollector(repo)
	inputs, err := collector.InputsForPeriod(context.Background(), testCompanyID, "employee-1",
		date(2024, time.January, 1), date(2024, time.January, 7))
	require.NoError(t, err)
	require.Len(t, inputs, 4)

	byCode := map[string]payroll.InputLine{}
	for i, in := range inputs {
		assert.Equal(t, i+1, in.Sequence)
		byCode[in.Code] = in
	}

	loan := byCode["D008"]
	assert.True(t, loan.Amount.Equal(dec("200")), "loan installment capped at outstanding, got %s", loan.Amount)
	assert.Equal(t, payroll.InputSourceLoan, loan.Source)
	require.NotNil(t, loan.SourceID)
	assert.Equal(t, "loan-1", *loan.SourceID)

	alimony := byCode["D007"]
	assert.True(t, alimony.Amount.Equal(dec("20")))
	assert.Equal(t, payroll.InputSourceAlimony, alimony.Source)

	assert.True(t, byCode[movement.InputCodeDoubleHours].Amount.Equal(dec("3.5")))
	assert.True(t, byCode[movement.InputCodeTripleHours].Amount.Equal(dec("1")))
	assert.Equal(t, payroll.InputSourceExtratime, byCode[movement.InputCodeTripleHours].Source)
}

func TestInputsForPeriod_Empty(t *testing.T) {
	collector := NewInputCollector(newFakeMovementRepo())
	inputs, err := collector.InputsForPeriod(context.Background(), testCompanyID, "employee-1",
		date(2024, time.January, 1), date(2024, time.January, 7))
	require.NoError(t, err)
	assert.Empty(t, inputs)
}
