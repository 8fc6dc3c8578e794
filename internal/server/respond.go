package server

import (
	"encoding/json"
	"net/http"

	"bananadb/internal/logging"
)

// Envelope is the standard success body.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorBody matches the {"detail": ...} shape clients already parse.
type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorBody{Detail: detail})
}

func (s *Server) writeList(w http.ResponseWriter, data any, count int) {
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: data})
}
