package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slok/stepflow/internal/app/assemble"
	"github.com/slok/stepflow/internal/app/assist"
	"github.com/slok/stepflow/internal/app/progress"
	"github.com/slok/stepflow/internal/app/stepgenerate"
	"github.com/slok/stepflow/internal/app/taskcreate"
	"github.com/slok/stepflow/internal/app/tasklist"
	"github.com/slok/stepflow/internal/app/taskstatus"
	"github.com/slok/stepflow/internal/model"
)

// ownerHeader carries the caller identity, set by the identity-aware proxy
// in front of the service.
const ownerHeader = "X-Owner-Id"

type ownerHandlerFunc func(w http.ResponseWriter, r *http.Request, ownerID string)

func (s *Server) ownerHandler(h ownerHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Header.Get(ownerHeader)
		if ownerID == "" {
			writeJSON(s, w, http.StatusUnauthorized, errorResponse{Error: "missing " + ownerHeader + " header"})
			return
		}
		h(w, r, ownerID)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeErr maps domain errors onto HTTP status codes.
func writeErr(s *Server, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, model.ErrLockedStep), errors.Is(err, model.ErrTaskClosed):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNotValid):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrExternalService):
		status = http.StatusBadGateway
	case errors.Is(err, model.ErrStore):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Errorf("Unhandled API error: %s", err)
	}
	writeJSON(s, w, status, errorResponse{Error: err.Error()})
}

func writeJSON(s *Server, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("Could not encode response: %s", err)
	}
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return errors.Join(model.ErrNotValid, err)
	}
	return nil
}

type businessContextRequest struct {
	Industry    string             `json:"industry"`
	ProductName string             `json:"product_name"`
	KnownCosts  map[string]float64 `json:"known_costs"`
	Goals       []string           `json:"goals"`
}

func (b businessContextRequest) toModel() model.BusinessContext {
	return model.BusinessContext{
		Industry:    b.Industry,
		ProductName: b.ProductName,
		KnownCosts:  b.KnownCosts,
		Goals:       b.Goals,
	}
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErr(s, w, err)
		return
	}

	task, err := s.taskCreate.Create(r.Context(), taskcreate.Request{
		OwnerID:     ownerID,
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusCreated, taskToJSON(*task))
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request, ownerID string) {
	tasks, err := s.taskList.List(r.Context(), tasklist.Request{OwnerID: ownerID})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToJSON(t))
	}
	writeJSON(s, w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleTaskShow(w http.ResponseWriter, r *http.Request, ownerID string) {
	st, err := s.taskStatus.Status(r.Context(), taskstatus.Request{
		OwnerID: ownerID,
		TaskID:  r.PathValue("id"),
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	resp := map[string]any{
		"task":  taskToJSON(st.Task),
		"steps": stepsToJSON(st.Steps),
	}
	if st.Deliverable != nil {
		resp["deliverable"] = deliverableToJSON(*st.Deliverable)
	}
	writeJSON(s, w, http.StatusOK, resp)
}

func (s *Server) handleStepGenerate(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body struct {
		Context businessContextRequest `json:"context"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &body); err != nil {
			writeErr(s, w, err)
			return
		}
	}

	steps, err := s.stepGenerate.Generate(r.Context(), stepgenerate.Request{
		OwnerID: ownerID,
		TaskID:  r.PathValue("id"),
		Context: body.Context.toModel(),
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusCreated, map[string]any{"steps": stepsToJSON(steps)})
}

func (s *Server) handleStepList(w http.ResponseWriter, r *http.Request, ownerID string) {
	snap, err := s.progress.List(r.Context(), progress.Request{
		OwnerID: ownerID,
		TaskID:  r.PathValue("id"),
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusOK, map[string]any{
		"task":          taskToJSON(snap.Task),
		"steps":         stepsToJSON(snap.Steps),
		"current_index": snap.CurrentIndex,
	})
}

func (s *Server) handleStepSelect(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body struct {
		Index int `json:"index"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErr(s, w, err)
		return
	}

	step, err := s.progress.Select(r.Context(), progress.SelectRequest{
		OwnerID: ownerID,
		TaskID:  r.PathValue("id"),
		Index:   body.Index,
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusOK, stepToJSON(*step))
}

func (s *Server) handleStepUpdate(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErr(s, w, err)
		return
	}

	step, err := s.progress.Update(r.Context(), progress.UpdateRequest{
		OwnerID: ownerID,
		StepID:  r.PathValue("id"),
		Data:    body.Data,
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusOK, stepToJSON(*step))
}

func (s *Server) handleStepValidate(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body struct {
		Type         string `json:"type"`
		Confirmation string `json:"confirmation"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &body); err != nil {
			writeErr(s, w, err)
			return
		}
	}

	res, err := s.progress.Validate(r.Context(), progress.ValidateRequest{
		OwnerID:      ownerID,
		StepID:       r.PathValue("id"),
		Type:         model.ValidationType(body.Type),
		Confirmation: body.Confirmation,
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	// A failed validation is a regular 200, success=false tells it apart.
	writeJSON(s, w, http.StatusOK, map[string]any{
		"success":        res.Passed,
		"reason":         res.Reason,
		"task_completed": res.TaskCompleted,
		"step":           stepToJSON(res.Step),
	})
}

func (s *Server) handleStepSkip(w http.ResponseWriter, r *http.Request, ownerID string) {
	step, err := s.progress.Skip(r.Context(), progress.SkipRequest{
		OwnerID: ownerID,
		StepID:  r.PathValue("id"),
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusOK, stepToJSON(*step))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, ownerID string) {
	if s.assist == nil {
		writeJSON(s, w, http.StatusNotImplemented, errorResponse{Error: "no completion service configured"})
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeErr(s, w, err)
		return
	}

	res, err := s.assist.Ask(r.Context(), assist.Request{
		OwnerID: ownerID,
		StepID:  r.PathValue("id"),
		Message: body.Message,
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusOK, map[string]any{
		"reply":    res.Reply,
		"degraded": res.Degraded,
	})
}

func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request, ownerID string) {
	if s.assemble == nil {
		writeJSON(s, w, http.StatusNotImplemented, errorResponse{Error: "no completion service configured"})
		return
	}

	deliverable, err := s.assemble.Assemble(r.Context(), assemble.Request{
		OwnerID: ownerID,
		TaskID:  r.PathValue("id"),
	})
	if err != nil {
		writeErr(s, w, err)
		return
	}

	writeJSON(s, w, http.StatusOK, deliverableToJSON(*deliverable))
}
