package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"greenlens/internal/services"
)

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// writeData writes the {"success":true,"data":...} envelope.
func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data})
}

// writeError maps an error to the {"success":false,"error":...} envelope.
// Internal causes are never leaked to clients.
func writeError(w http.ResponseWriter, err error) {
	status := services.StatusCodeOf(err)
	message := "internal server error"
	var se *services.Error
	if errors.As(err, &se) && se.Kind != services.KindInternal {
		message = se.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Success: false,
		Error:   errorBody{Code: status, Message: message},
	})
}
