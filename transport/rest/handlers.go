package rest

import (
	"encoding/json"
	"net/http"
)

func (that *Server) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// snapshot - current state of the match as seen by this side.
func (that *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	log := that.logger.With("method", "snapshot")

	if that.match == nil {
		http.Error(w, "no match", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(that.match.Snapshot()); err != nil {
		log.Error("failed to encode snapshot", "error", err)
	}
}
