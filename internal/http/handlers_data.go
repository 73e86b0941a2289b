package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"subtrack/internal/snapshot"
)

// Import payloads are small JSON documents, but the body still gets a
// cap so a runaway client cannot exhaust memory.
const maxImportBytes = 16 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	data, err := snapshot.Encode(s.ledger.Export())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("subscriptions-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	snap, err := snapshot.Decode(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.ledger.Import(r.Context(), snap); err != nil {
		writeLedgerError(w, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Imported snapshot",
		"currencies", len(snap.Currencies),
		"subscriptions", len(snap.Subscriptions),
		"payments", len(snap.Payments),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"currencies":    len(snap.Currencies),
		"subscriptions": len(snap.Subscriptions),
		"payments":      len(snap.Payments),
	})
}
