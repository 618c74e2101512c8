package movement

import "context"

type MovementService interface {
	CreateLoan(ctx context.Context, req CreateLoanRequest) (MovementResponse, error)
	CreateAlimony(ctx context.Context, req CreateAlimonyRequest) (MovementResponse, error)
	CreateSettlement(ctx context.Context, req CreateSettlementRequest) (MovementResponse, error)
	CreatePTUProcess(ctx context.Context, req CreatePTUProcessRequest) (MovementResponse, error)
	CreateExtratime(ctx context.Context, req CreateExtratimeRequest) (MovementResponse, error)
	CreateSalaryIncrease(ctx context.Context, req CreateSalaryIncreaseRequest) (MovementResponse, error)

	Transition(ctx context.Context, kind Kind, id string, action Action) (MovementResponse, error)
	Delete(ctx context.Context, kind Kind, id string) error
}
