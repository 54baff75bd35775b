package listener

import (
	"context"
	"errors"
	"sync"
	"sysrecv/db"
	"sysrecv/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expectedResult struct {
	facility       int
	severity       int
	version        string
	hostname       string
	appName        string
	procid         string
	msgid          string
	structuredData string
	msg            string
}

type testCase struct {
	name     string
	message  string
	expected expectedResult
}

func getTestCases() []testCase {
	return []testCase{
		{
			name:    "Valid message with basic fields",
			message: "<13>1 2023-10-01T12:34:56Z example-host example-app 1234 5678 - Test log message",
			expected: expectedResult{
				facility:       1,
				severity:       5,
				version:        "1",
				hostname:       "example-host",
				appName:        "example-app",
				procid:         "1234",
				msgid:          "5678",
				structuredData: "-",
				msg:            "Test log message",
			},
		},
		{
			name:    "Emergency message from kernel",
			message: "<0>1 2023-10-01T12:34:56Z host2 kernel 0 - - Kernel panic - not syncing",
			expected: expectedResult{
				facility:       0,
				severity:       0,
				version:        "1",
				hostname:       "host2",
				appName:        "kernel",
				procid:         "0",
				msgid:          "-",
				structuredData: "-",
				msg:            "Kernel panic - not syncing",
			},
		},
		{
			name:    "RFC3164 basic",
			message: "<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick on /dev/pts/8",
			expected: expectedResult{
				facility:       4,
				severity:       2,
				version:        "0",
				hostname:       "mymachine",
				appName:        "su",
				procid:         "-",
				msgid:          "-",
				structuredData: "-",
				msg:            "'su root' failed for lonvick on /dev/pts/8",
			},
		},
		{
			name:    "Unstructured text",
			message: "garbage not syslog",
			expected: expectedResult{
				facility:       0,
				severity:       0,
				version:        "unknown",
				hostname:       "unknown",
				appName:        "unknown",
				procid:         "-",
				msgid:          "-",
				structuredData: "-",
				msg:            "garbage not syslog",
			},
		},
	}
}

// waitForRecord polls the store until a record with the given raw message
// appears.
func waitForRecord(t *testing.T, store db.Store, raw string) models.LogRecord {
	t.Helper()

	var found models.LogRecord
	require.Eventually(t, func() bool {
		records, err := store.Query(context.Background(), db.QueryFilter{Limit: 1000})
		if err != nil {
			return false
		}
		for _, r := range records {
			if r.RawMessage == raw {
				found = r
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond, "record %q was not stored", raw)

	return found
}

func verifyRecord(t *testing.T, got models.LogRecord, tc testCase) {
	t.Helper()

	assert.Equal(t, tc.expected.facility, got.Facility, "facility")
	assert.Equal(t, tc.expected.severity, got.Severity, "severity")
	assert.Equal(t, tc.expected.version, got.Version, "version")
	assert.Equal(t, tc.expected.hostname, got.Hostname, "hostname")
	assert.Equal(t, tc.expected.appName, got.AppName, "appName")
	assert.Equal(t, tc.expected.procid, got.ProcID, "procId")
	assert.Equal(t, tc.expected.msgid, got.MsgID, "msgId")
	assert.Equal(t, tc.expected.structuredData, got.StructuredData, "structuredData")
	assert.Equal(t, tc.expected.msg, got.Message, "message")
	assert.Equal(t, "127.0.0.1", got.SourceIP, "sourceIp")
	assert.NotEmpty(t, got.ID, "id")
	assert.False(t, got.ReceivedAt.IsZero(), "receivedAt")
}

var errStoreDown = errors.New("store is down")

// failingStore rejects every append.
type failingStore struct {
	db.MemoryStore
}

func (f *failingStore) Append(context.Context, models.LogRecord) error {
	return errStoreDown
}

// gatedStore blocks the first append until release is closed. Later appends
// go straight through.
type gatedStore struct {
	*db.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: db.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) Append(ctx context.Context, record models.LogRecord) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.MemoryStore.Append(ctx, record)
}

// stalledStore never completes an append before ctx ends.
type stalledStore struct {
	db.MemoryStore
}

func (s *stalledStore) Append(ctx context.Context, _ models.LogRecord) error {
	<-ctx.Done()
	return ctx.Err()
}
