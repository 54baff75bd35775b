package handlers

import (
	"log"
	"net/http"
	"sysrecv/db"
	"sysrecv/listener"
)

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	TotalLogs int `json:"totalLogs"`
}

// DistinctValuesHandler serves every stored value of field as a JSON array.
// Query filters are ignored.
func DistinctValuesHandler(store db.Store, field db.Field) http.HandlerFunc {
	return apiHandler(func(w http.ResponseWriter, r *http.Request) {
		values, err := store.DistinctValues(r.Context(), field)
		if err != nil {
			log.Printf("Error fetching %s values: %v", field, err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, values)
	})
}

// StatsHandler serves the total record count.
func StatsHandler(store db.Store) http.HandlerFunc {
	return apiHandler(func(w http.ResponseWriter, r *http.Request) {
		count, err := store.Count(r.Context())
		if err != nil {
			log.Printf("Error counting logs: %v", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, StatsResponse{TotalLogs: count})
	})
}

// SnapshotProvider exposes ingestion counters.
type SnapshotProvider interface {
	Snapshot() listener.Snapshot
}

// DiagnosticsHandler serves the ingestion counters of this process.
func DiagnosticsHandler(counters SnapshotProvider) http.HandlerFunc {
	return apiHandler(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, counters.Snapshot())
	})
}
