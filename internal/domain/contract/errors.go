package contract

import "errors"

var (
	ErrContractNotFound         = errors.New("contract not found")
	ErrContractNotOpen          = errors.New("contract is not open")
	ErrAllowanceCatalogNotFound = errors.New("allowance catalog not found")
	ErrSalaryHistoryNotFound    = errors.New("salary history not found")
	ErrInvalidWage              = errors.New("wage must be greater than zero")
)
