package movement

import "errors"

var (
	ErrMovementNotFound      = errors.New("movement not found")
	ErrUnknownKind           = errors.New("unknown movement kind")
	ErrUnknownAction         = errors.New("unknown movement action")
	ErrInvalidTransition     = errors.New("movement cannot change to the requested state")
	ErrDeleteNotDraft        = errors.New("only draft movements can be deleted")
	ErrExtratimeOutOfPeriod  = errors.New("some lines have a different date than the selected period")
	ErrUndefinedSettlement   = errors.New("settlement type is undefined, set the reason for dismissal")
	ErrSalaryIncreaseApplied = errors.New("salary increase is already applied")
	ErrActionNotSupported    = errors.New("action is not supported for this movement kind")
)
