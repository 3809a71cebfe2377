package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"worldatlas/db"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, APIResponse{Success: true, Data: data})
}

func Message(w http.ResponseWriter, status int, msg string, data interface{}) {
	write(w, status, APIResponse{Success: true, Message: msg, Data: data})
}

func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, APIResponse{Success: false, Message: msg})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// StatusMapper maps a domain error to an HTTP status; ok is false when
// the error is not one it knows
type StatusMapper func(err error) (status int, ok bool)

// FromError writes err with the first status any mapper claims. Not-found
// errors map to 404 and everything else to 500 with a generic message.
func FromError(w http.ResponseWriter, err error, mappers ...StatusMapper) {
	for _, m := range mappers {
		if status, ok := m(err); ok {
			Error(w, status, err.Error())
			return
		}
	}
	if errors.Is(err, db.ErrNotFound) {
		Error(w, http.StatusNotFound, "not found")
		return
	}
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Is returns a mapper that claims errors matching target
func Is(target error, status int) StatusMapper {
	return func(err error) (int, bool) {
		if errors.Is(err, target) {
			return status, true
		}
		return 0, false
	}
}
