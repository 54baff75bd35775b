package db

import (
	"strings"
	"sysrecv/models"
)

// DefaultLimit caps a query when the caller gives no usable limit.
const DefaultLimit = 100

// AllValues is accepted for Hostname and AppName and means "no filter".
const AllValues = "all"

// QueryFilter selects stored records. Zero values mean "no filter".
type QueryFilter struct {
	Search   string // Case-insensitive substring of message or raw message
	Severity *int   // Exact severity
	Hostname string // Exact hostname
	AppName  string // Exact app name
	Limit    int    // Maximum number of records, newest first
}

// Normalize resolves the "all" sentinel and applies the default limit.
func (f QueryFilter) Normalize() QueryFilter {
	if f.Hostname == AllValues {
		f.Hostname = ""
	}
	if f.AppName == AllValues {
		f.AppName = ""
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	return f
}

// Matches reports whether a record passes the filter. Limit is not applied.
func (f QueryFilter) Matches(r models.LogRecord) bool {
	f = f.Normalize()

	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Message), term) &&
			!strings.Contains(strings.ToLower(r.RawMessage), term) {
			return false
		}
	}
	if f.Severity != nil && r.Severity != *f.Severity {
		return false
	}
	if f.Hostname != "" && r.Hostname != f.Hostname {
		return false
	}
	if f.AppName != "" && r.AppName != f.AppName {
		return false
	}
	return true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a search term into a LIKE pattern matching it as a
// lowercase substring. The pattern uses '\' as escape character.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}
