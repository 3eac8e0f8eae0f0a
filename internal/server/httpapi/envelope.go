package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/goccy/go-json"
)

// Response is the body of every JSON answer of the API.
type Response struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       any                 `json:"data,omitempty"`
	Pagination *models.Pagination  `json:"pagination,omitempty"`
	StatusCode int                 `json:"statusCode,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
	Stack      string              `json:"stack,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body *Response) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, `{"success":false,"message":"An unexpected error occurred"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, &Response{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, &Response{Success: true, Message: message, Data: data})
}

func respondPaginated(w http.ResponseWriter, message string, data any, p models.Pagination) {
	writeJSON(w, http.StatusOK, &Response{Success: true, Message: message, Data: data, Pagination: &p})
}
