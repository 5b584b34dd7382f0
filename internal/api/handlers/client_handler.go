package handlers

import (
	"net/http"

	"github.com/TWRT/courier-dispatch/internal/service"
)

type ClientHandler struct {
	clientService *service.ClientService
}

func NewClientHandler(clientService *service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
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
	clients, err := h.clientService.List(r.Context(), p, orgID, r.URL.Query().Get("q"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	client, err := h.clientService.Get(r.Context(), p, orgID, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	var body service.ClientInput
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if orgID, err = bodyOrg(orgID, body.OrganizationID); err != nil {
		WriteError(w, r, err)
		return
	}
	client, err := h.clientService.Create(r.Context(), p, orgID, body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var body service.ClientInput
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if orgID, err = bodyOrg(orgID, body.OrganizationID); err != nil {
		WriteError(w, r, err)
		return
	}
	client, err := h.clientService.Update(r.Context(), p, orgID, id, body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.clientService.Delete(r.Context(), p, orgID, id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
