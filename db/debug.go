package db

import (
	"log"
	"time"
)

// trace prints the query with its args and the time elapsed since start.
// It is a no-op unless the store was opened in debug mode.
func (s *SQLStore) trace(start time.Time, query string, args []any) {
	if !s.debug {
		return
	}
	log.Printf("🔍 Query: %s | Args: %v | Duration: %s", query, args, time.Since(start))
}
