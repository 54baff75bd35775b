package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sysrecv/db"
	"sysrecv/formats"
	"sysrecv/models"
)

// LogsHandler serves GET /api/logs?search=&severity=&hostname=&appName=&limit=
// as a JSON array of records, newest first.
func LogsHandler(store db.Store) http.HandlerFunc {
	return apiHandler(func(w http.ResponseWriter, r *http.Request) {
		filter := ParseFilter(r.URL.Query())

		logs, err := store.Query(r.Context(), filter)
		if err != nil {
			log.Printf("Error fetching logs: %v", err)
			writeError(w, err)
			return
		}

		for i := range logs {
			logs[i].StructuredDataParams = structuredDataParams(logs[i])
		}

		writeJSON(w, http.StatusOK, logs)
	})
}

// ParseFilter reads the filter parameters. Values that do not parse are
// treated as absent rather than rejected.
func ParseFilter(query url.Values) db.QueryFilter {
	filter := db.QueryFilter{
		Search:   query.Get("search"),
		Hostname: query.Get("hostname"),
		AppName:  query.Get("appName"),
		Limit:    db.DefaultLimit,
	}

	if severityStr := strings.TrimSpace(query.Get("severity")); severityStr != "" {
		if severity, err := strconv.Atoi(severityStr); err == nil {
			filter.Severity = &severity
		}
	}

	if limitStr := strings.TrimSpace(query.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	return filter
}

// structuredDataParams decodes the structured data of RFC5424 records that
// carry any.
func structuredDataParams(r models.LogRecord) map[string]map[string]string {
	if !r.Reliable() || r.Version == models.VersionRFC3164 || r.StructuredData == models.Nil {
		return nil
	}
	return formats.ParseStructuredData(r.RawMessage)
}
