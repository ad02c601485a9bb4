package server

import (
	"errors"
	"net/http"

	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	projectID, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	var req createTaskRequest
	if errs := s.decodeBody(r, &req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	task := &models.Task{
		ProjectID: projectID,
		OwnerID:   ownerID,
		Title:     req.Title,
		Status:    models.TaskStatusNotStarted,
		Priority:  models.TaskPriorityMedium,
		Deadline:  req.Deadline,
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	if err := s.tasks.Create(r.Context(), task); err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			writeDetail(w, http.StatusNotFound, "Project not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

func (s *Server) listTasksByProject(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	projectID, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	tasks, err := s.tasks.ListByProject(r.Context(), projectID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			writeDetail(w, http.StatusNotFound, "Project not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, newTaskResponse(task))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	id, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	task, err := s.tasks.Get(r.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeDetail(w, http.StatusNotFound, "Task not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	id, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	var req updateTaskRequest
	if errs := s.decodeBody(r, &req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	patch := &store.TaskPatch{
		Title:    req.Title,
		Status:   req.Status,
		Priority: req.Priority,
		Deadline: store.OptionalTime{Set: req.Deadline.Set, Time: req.Deadline.Value},
	}

	task, err := s.tasks.Update(r.Context(), id, ownerID, patch)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeDetail(w, http.StatusNotFound, "Task not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	id, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	if err := s.tasks.Delete(r.Context(), id, ownerID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			writeDetail(w, http.StatusNotFound, "Task not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
