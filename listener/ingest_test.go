package listener

import (
	"context"
	"net"
	"sysrecv/db"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestorAttachesTransportMetadata(t *testing.T) {
	store := db.NewMemoryStore()
	counters := &Counters{}
	ingestor := NewIngestor(store, counters, time.Second)
	ingestor.newID = func() string { return "fixed-id" }

	receivedAt := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	raw := "<13>Oct 11 22:14:15 myhost sshd: login failed"

	record, err := ingestor.Ingest([]byte(raw), "192.0.2.7", receivedAt)
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", record.ID)
	assert.Equal(t, "192.0.2.7", record.SourceIP)
	assert.Equal(t, receivedAt, record.ReceivedAt)
	assert.Equal(t, raw, record.RawMessage)

	stored, err := store.Query(context.Background(), db.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, record, stored[0])

	assert.Equal(t, Snapshot{Received: 1, RFC3164: 1, Stored: 1}, counters.Snapshot())
}

func TestIngestorStoreFailure(t *testing.T) {
	counters := &Counters{}
	ingestor := NewIngestor(&failingStore{}, counters, time.Second)

	record, err := ingestor.Ingest([]byte("garbage"), "192.0.2.7", time.Now())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, "garbage", record.RawMessage)

	assert.Equal(t, Snapshot{Received: 1, Unknown: 1, StoreFailures: 1}, counters.Snapshot())
}

func TestIngestorStoreTimeout(t *testing.T) {
	counters := &Counters{}
	ingestor := NewIngestor(&stalledStore{}, counters, 50*time.Millisecond)

	start := time.Now()
	_, err := ingestor.Ingest([]byte("<13>Oct 11 22:14:15 myhost sshd: slow"), "192.0.2.7", start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), counters.Snapshot().StoreFailures)
	assert.Zero(t, counters.Snapshot().Stored)
}

func TestIngestorEmptyPayloadIsStored(t *testing.T) {
	store := db.NewMemoryStore()
	ingestor := NewIngestor(store, nil, 0)

	record, err := ingestor.Ingest(nil, "192.0.2.7", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "unknown", record.Version)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountersPerFormat(t *testing.T) {
	store := db.NewMemoryStore()
	counters := &Counters{Verbose: true}
	ingestor := NewIngestor(store, counters, time.Second)

	inputs := []string{
		"<34>1 2003-10-11T22:14:15.003Z mymachine.example.com su - ID47 - 'su root' failed",
		"<14>1 2003-10-11T22:14:15.003Z h a - - - second",
		"<13>Oct 11 22:14:15 myhost sshd: login failed",
		"not syslog",
	}
	for _, in := range inputs {
		_, err := ingestor.Ingest([]byte(in), "10.1.1.1", time.Now())
		require.NoError(t, err)
	}

	assert.Equal(t, Snapshot{Received: 4, RFC5424: 2, RFC3164: 1, Unknown: 1, Stored: 4}, counters.Snapshot())
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "10.0.0.1", hostOf(&net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: 514}))
	assert.Equal(t, "::1", hostOf(&net.TCPAddr{IP: net.ParseIP("::1"), Port: 601}))
	assert.Equal(t, "", hostOf(nil))

	var nilUDP *net.UDPAddr
	assert.Equal(t, "", hostOf(nilUDP))
}
