package handlers

import (
	"net/http"

	"github.com/TWRT/courier-dispatch/internal/service"
)

type CourierHandler struct {
	courierService *service.CourierService
}

func NewCourierHandler(courierService *service.CourierService) *CourierHandler {
	return &CourierHandler{courierService: courierService}
}

func (h *CourierHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	orgID, err := orgParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	active, err := queryBool(r, "active")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	couriers, err := h.courierService.List(r.Context(), p, orgID, active)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"couriers": couriers})
}

func (h *CourierHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	orgID, err := orgParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	courier, err := h.courierService.Get(r.Context(), p, orgID, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, courier)
}

func (h *CourierHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	orgID, err := orgParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body service.CourierInput
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if orgID, err = bodyOrg(orgID, body.OrganizationID); err != nil {
		WriteError(w, r, err)
		return
	}
	courier, err := h.courierService.Create(r.Context(), p, orgID, body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, courier)
}

func (h *CourierHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	orgID, err := orgParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body service.CourierInput
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if orgID, err = bodyOrg(orgID, body.OrganizationID); err != nil {
		WriteError(w, r, err)
		return
	}
	courier, err := h.courierService.Update(r.Context(), p, orgID, id, body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, courier)
}

func (h *CourierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	orgID, err := orgParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.courierService.Delete(r.Context(), p, orgID, id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
