package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-mx/internal/domain/movement"
	"github.com/cmlabs-hris/payroll-mx/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type MovementHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Transition(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type movementHandlerImpl struct {
	movementService movement.MovementService
}

func NewMovementHandler(movementService movement.MovementService) MovementHandler {
	return &movementHandlerImpl{movementService: movementService}
}

// Create dispatches on the {kind} path segment to the matching request body.
func (h *movementHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	kind, err := movement.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var result movement.MovementResponse
	switch kind {
	case movement.KindLoan:
		var req movement.CreateLoanRequest
		if !decode(w, r, &req) {
			return
		}
		result, err = h.movementService.CreateLoan(r.Context(), req)
	case movement.KindAlimony:
		var req movement.CreateAlimonyRequest
		if !decode(w, r, &req) {
			return
		}
		result, err = h.movementService.CreateAlimony(r.Context(), req)
	case movement.KindSettlement:
		var req movement.CreateSettlementRequest
		if !decode(w, r, &req) {
			return
		}
		result, err = h.movementService.CreateSettlement(r.Context(), req)
	case movement.KindPTU:
		var req movement.CreatePTUProcessRequest
		if !decode(w, r, &req) {
			return
		}
		result, err = h.movementService.CreatePTUProcess(r.Context(), req)
	case movement.KindExtratime:
		var req movement.CreateExtratimeRequest
		if !decode(w, r, &req) {
			return
		}
		result, err = h.movementService.CreateExtratime(r.Context(), req)
	case movement.KindSalaryIncrease:
		var req movement.CreateSalaryIncreaseRequest
		if !decode(w, r, &req) {
			return
		}
		result, err = h.movementService.CreateSalaryIncrease(r.Context(), req)
	default:
		err = movement.ErrUnknownKind
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Movement created", result)
}

func (h *movementHandlerImpl) Transition(w http.ResponseWriter, r *http.Request) {
	kind, err := movement.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	action := movement.Action(chi.URLParam(r, "action"))

	result, err := h.movementService.Transition(r.Context(), kind, id, action)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *movementHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	kind, err := movement.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.movementService.Delete(r.Context(), kind, id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Movement deleted", nil)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}
