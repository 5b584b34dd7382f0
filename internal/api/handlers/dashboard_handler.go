package handlers

import (
	"net/http"

	"github.com/TWRT/courier-dispatch/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
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
	days, err := queryInt(r, "days")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	stats, err := h.dashboardService.Stats(r.Context(), p, orgID, days)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
