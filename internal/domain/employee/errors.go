package employee

import "errors"

var (
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrEmployeeNumberExists     = errors.New("employee number already exists")
	ErrEmployerRegisterNotFound = errors.New("employer register not found")
	ErrInvalidFiscalRegime      = errors.New("invalid fiscal regime")
)
