package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	var req createProjectRequest
	if errs := s.decodeBody(r, &req); errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	project := &models.Project{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.projects.Create(r.Context(), project); err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newProjectResponse(project))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	projects, err := s.projects.ListByOwner(r.Context(), ownerID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		resp = append(resp, newProjectResponse(project))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	id, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	project, err := s.projects.Get(r.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			writeDetail(w, http.StatusNotFound, "Project not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newProjectResponse(project))
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.IdentityFromContext(r.Context())

	id, errs := pathID(r, "id")
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	if err := s.projects.Delete(r.Context(), id, ownerID); err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			writeDetail(w, http.StatusNotFound, "Project not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// serverError logs the underlying cause and responds with a generic 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	writeDetail(w, http.StatusInternalServerError, "Internal server error")
}
