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

func TestTCPListener(t *testing.T) {
	store := db.NewMemoryStore()
	l := NewTCPListener("127.0.0.1:0", NewIngestor(store, nil, time.Second), 4)
	require.NoError(t, l.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)

	testCases := getTestCases()
	for _, tc := range testCases {
		_, err := conn.Write([]byte(tc.message + "\r\n\n"))
		require.NoError(t, err)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verifyRecord(t, waitForRecord(t, store, tc.message), tc)
		})
	}

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(testCases), count, "empty lines must not produce records")

	// Cancellation closes the open connection too
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("TCP listener did not stop")
	}
	conn.Close()
}

func TestTCPListener_BindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	l := NewTCPListener(taken.Addr().String(), NewIngestor(db.NewMemoryStore(), nil, 0), 0)
	err = l.Run(context.Background())

	var bindErr *BindError
	assert.ErrorAs(t, err, &bindErr)
}
