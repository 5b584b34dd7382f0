package courierapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/TWRT/courier-dispatch/internal/models"
)

// APIError is a non-2xx response from the dispatch API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User models.User `json:"user"`
}

type statusRequest struct {
	Status models.TaskStatus `json:"status"`
	Note   string            `json:"note,omitempty"`
}

type photosResponse struct {
	Photos []models.TaskPhoto `json:"photos"`
}
