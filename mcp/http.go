package mcp

import (
	"encoding/json"
	"net/http"
	"strings"
)

// maxRequestBody bounds a single JSON-RPC message over HTTP.
const maxRequestBody = 10 << 20

// HandleRequest serves MCP over HTTP POST. Each body holds one JSON-RPC
// message; notifications are acknowledged with 202 and no body.
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id, Mcp-Protocol-Version")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	var req MCPRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.logger.Debugw("rejecting malformed mcp request", "error", err)
		writeResponse(w, errorResponse(nil, ErrorCodeParseError, "Parse error", map[string]interface{}{
			"details": err.Error(),
		}))
		return
	}

	resp := s.Handle(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeResponse(w, resp)
}

// ServeHTTP makes the server usable directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleRequest(w, r)
}

func writeResponse(w http.ResponseWriter, resp *MCPResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	// JSON-RPC errors still travel with 200.
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
