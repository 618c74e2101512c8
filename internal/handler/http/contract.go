package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/contract"
	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ContractHandler interface {
	UpdateBase(w http.ResponseWriter, r *http.Request)
	UpdateWage(w http.ResponseWriter, r *http.Request)
}

type contractHandlerImpl struct {
	contractService contract.ContractService
}

func NewContractHandler(contractService contract.ContractService) ContractHandler {
	return &contractHandlerImpl{contractService: contractService}
}

func (h *contractHandlerImpl) UpdateBase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Contract ID is required", nil)
		return
	}

	result, err := h.contractService.UpdateBase(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary base recomputed", result)
}

func (h *contractHandlerImpl) UpdateWage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Contract ID is required", nil)
		return
	}

	var req contract.UpdateWageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.contractService.UpdateWage(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Wage updated", result)
}
