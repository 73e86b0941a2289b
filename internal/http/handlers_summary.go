package http

import "net/http"

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	target := r.URL.Query().Get("currency")
	writeJSON(w, http.StatusOK, s.ledger.Summary(target))
}
