package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wolfeidau/tracker/internal/models"
)

type createProjectRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type createTaskRequest struct {
	Title    string               `json:"title" validate:"required,min=1,max=200"`
	Status   *models.TaskStatus   `json:"status" validate:"omitempty,taskstatus"`
	Priority *models.TaskPriority `json:"priority" validate:"omitempty,taskpriority"`
	Deadline *time.Time           `json:"deadline"`
}

// optionalTime distinguishes an omitted field from an explicit null. Set is
// true whenever the key was present in the request body; a nil Value then
// means the client sent null to clear the field.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

type updateTaskRequest struct {
	Title    *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Status   *models.TaskStatus   `json:"status" validate:"omitempty,taskstatus"`
	Priority *models.TaskPriority `json:"priority" validate:"omitempty,taskpriority"`
	Deadline optionalTime         `json:"deadline"`
}

// newValidator builds the request validator with the enum membership rules
// and json-tag field names in error output.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return models.TaskStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
		return models.TaskPriority(fl.Field().String()).Valid()
	})

	return v
}

// decodeBody decodes and validates a JSON request body into dst.
// Returns structured field errors suitable for a 422 response.
func (s *Server) decodeBody(r *http.Request, dst any) []fieldError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return []fieldError{{Field: "body", Message: "invalid request body"}}
	}

	if err := s.validate.Struct(dst); err != nil {
		return fieldErrors(err)
	}

	return nil
}

// pathID parses an integer id path parameter. Non-integer values are a
// validation error, not a 404.
func pathID(r *http.Request, name string) (int64, []fieldError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, []fieldError{{Field: name, Message: "must be an integer"}}
	}
	return id, nil
}
