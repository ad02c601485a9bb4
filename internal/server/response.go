package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wolfeidau/tracker/internal/models"
)

// projectResponse is the wire representation of a project.
type projectResponse struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProjectResponse(project *models.Project) projectResponse {
	return projectResponse{
		ID:          project.ID,
		OwnerID:     project.OwnerID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// taskResponse is the wire representation of a task.
type taskResponse struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	OwnerID   string     `json:"owner_id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	Deadline  *time.Time `json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:        task.ID,
		ProjectID: task.ProjectID,
		OwnerID:   task.OwnerID,
		Title:     task.Title,
		Status:    task.Status.String(),
		Priority:  task.Priority.String(),
		Deadline:  task.Deadline,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// fieldError is a single structured validation failure.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail sends JSON { "detail": message } with the given status code.
func writeDetail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"detail": message})
}

// writeValidationErrors sends a 422 with structured field errors.
func writeValidationErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string][]fieldError{"detail": errs})
}

// fieldErrors converts validator failures to the structured response shape.
func fieldErrors(err error) []fieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []fieldError{{Field: "body", Message: "invalid request body"}}
	}

	errs := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "taskstatus":
		return "must be one of not_started, in_progress, done"
	case "taskpriority":
		return "must be one of low, medium, high, urgent"
	default:
		return "is invalid"
	}
}
