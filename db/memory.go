package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sysrecv/models"
)

// MemoryStore keeps records in process memory. Records are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.LogRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, record models.LogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record)
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]models.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	m.mu.RLock()
	matched := make([]models.LogRecord, 0)
	for _, r := range m.records {
		if filter.Matches(r) {
			matched = append(matched, r)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
	})

	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (m *MemoryStore) DistinctValues(ctx context.Context, field Field) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var get func(models.LogRecord) string
	switch field {
	case FieldHostname:
		get = func(r models.LogRecord) string { return r.Hostname }
	case FieldAppName:
		get = func(r models.LogRecord) string { return r.AppName }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	m.mu.RLock()
	seen := make(map[string]struct{})
	for _, r := range m.records {
		seen[get(r)] = struct{}{}
	}
	m.mu.RUnlock()

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
