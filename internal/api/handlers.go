package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/kibana"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.client.ListAgents(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	rows := make([]kibana.AgentRow, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, kibana.FormatAgentRow(a))
	}

	s.writeJSON(w, rows)
}

func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	var req kibana.ConverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Input == "" {
		s.writeError(w, "input is required", http.StatusBadRequest)
		return
	}
	if req.AgentID == "" {
		s.writeError(w, "agent_id is required", http.StatusBadRequest)
		return
	}

	data, err := s.client.Converse(r.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Msg("converse error")
		s.writeUpstreamError(w, err)
		return
	}

	s.writeJSON(w, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeUpstreamError maps a Kibana status error to 502 with the upstream
// body preserved; anything else becomes a plain 500.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *kibana.StatusError
	if errors.As(err, &statusErr) {
		s.writeError(w, statusErr.Error(), http.StatusBadGateway)
		return
	}
	s.writeError(w, err.Error(), http.StatusInternalServerError)
}
