package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/service"
)

type SetStatusRequestBody struct {
	Status models.TaskStatus `json:"status"`
	Note   string            `json:"note"`
}

type AssignRequestBody struct {
	CourierID *int64 `json:"courier_id"`
}

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func taskQuery(r *http.Request) (service.TaskQuery, error) {
	q := r.URL.Query()
	query := service.TaskQuery{
		Status:        q.Get("status"),
		Type:          q.Get("type"),
		Query:         q.Get("q"),
		ScheduledFrom: q.Get("scheduled_from"),
		ScheduledTo:   q.Get("scheduled_to"),
	}
	var err error
	if query.OrganizationID, err = orgParam(r); err != nil {
		return service.TaskQuery{}, err
	}
	if query.CourierID, err = queryID(r, "courier_id"); err != nil {
		return service.TaskQuery{}, err
	}
	if query.ClientID, err = queryID(r, "client_id"); err != nil {
		return service.TaskQuery{}, err
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		return service.TaskQuery{}, err
	}
	if query.Offset, err = queryInt(r, "offset"); err != nil {
		return service.TaskQuery{}, err
	}
	return query, nil
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	query, err := taskQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	page, err := h.taskService.List(r.Context(), p, query)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (h *TaskHandler) Export(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	query, err := taskQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if _, err := h.taskService.Export(r.Context(), p, query, &buf); err != nil {
		WriteError(w, r, err)
		return
	}
	filename := fmt.Sprintf("tasks-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	task, err := h.taskService.Get(r.Context(), p, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	var body service.TaskInput
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	if orgID, err = bodyOrg(orgID, body.OrganizationID); err != nil {
		WriteError(w, r, err)
		return
	}
	task, err := h.taskService.Create(r.Context(), p, orgID, body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body service.TaskInput
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	task, err := h.taskService.Update(r.Context(), p, id, body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.taskService.Delete(r.Context(), p, id); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body SetStatusRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	task, err := h.taskService.SetStatus(r.Context(), p, id, body.Status, body.Note)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var body AssignRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, r, err)
		return
	}
	task, err := h.taskService.Assign(r.Context(), p, id, body.CourierID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Events(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	events, err := h.taskService.Events(r.Context(), p, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
