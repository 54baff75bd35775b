package listener

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"sysrecv/db"
	"sysrecv/formats"
	"sysrecv/models"
	"time"

	"github.com/google/uuid"
)

// DefaultStoreTimeout bounds a single append when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// BindError reports that a listener could not acquire its endpoint.
type BindError struct {
	Network string
	Addr    string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to start %s listener on %s: %v", e.Network, e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Diagnostics receives one notification per message and per store outcome.
// Implementations must be safe for concurrent use.
type Diagnostics interface {
	Received(record models.LogRecord, format formats.Format)
	Stored(record models.LogRecord)
	StoreFailed(record models.LogRecord, err error)
}

// Ingestor turns one raw message into a stored record. It is shared by all
// transports and safe for concurrent use.
type Ingestor struct {
	store   db.Store
	diag    Diagnostics
	timeout time.Duration
	newID   func() string
}

func NewIngestor(store db.Store, diag Diagnostics, timeout time.Duration) *Ingestor {
	if diag == nil {
		diag = NopDiagnostics{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Ingestor{
		store:   store,
		diag:    diag,
		timeout: timeout,
		newID:   uuid.NewString,
	}
}

// Ingest parses data, attaches the transport metadata and appends the
// record. A failed append drops the record: it is reported and returned,
// never retried.
func (in *Ingestor) Ingest(data []byte, sourceIP string, receivedAt time.Time) (models.LogRecord, error) {
	record, format := formats.Classify(data)
	record.ID = in.newID()
	record.SourceIP = sourceIP
	record.ReceivedAt = receivedAt

	in.diag.Received(record, format)

	ctx, cancel := context.WithTimeout(context.Background(), in.timeout)
	defer cancel()

	if err := in.store.Append(ctx, record); err != nil {
		log.Printf("Error storing log from %s: %v", sourceIP, err)
		in.diag.StoreFailed(record, err)
		return record, err
	}

	in.diag.Stored(record)
	return record, nil
}

// hostOf returns the IP part of a transport address.
func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	switch a := addr.(type) {
	case *net.UDPAddr:
		if a != nil {
			return a.IP.String()
		}
		return ""
	case *net.TCPAddr:
		if a != nil {
			return a.IP.String()
		}
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// NopDiagnostics discards all notifications.
type NopDiagnostics struct{}

func (NopDiagnostics) Received(models.LogRecord, formats.Format) {}
func (NopDiagnostics) Stored(models.LogRecord)                  {}
func (NopDiagnostics) StoreFailed(models.LogRecord, error)      {}

// Snapshot is a point-in-time copy of the ingestion counters.
type Snapshot struct {
	Received      int64 `json:"received"`
	RFC5424       int64 `json:"rfc5424"`
	RFC3164       int64 `json:"rfc3164"`
	Unknown       int64 `json:"unknown"`
	Stored        int64 `json:"stored"`
	StoreFailures int64 `json:"storeFailures"`
}

// Counters counts messages per grammar and store outcome. With Verbose set
// it also logs one line per message.
type Counters struct {
	Verbose bool

	received      atomic.Int64
	rfc5424       atomic.Int64
	rfc3164       atomic.Int64
	unknown       atomic.Int64
	stored        atomic.Int64
	storeFailures atomic.Int64
}

func (c *Counters) Received(record models.LogRecord, format formats.Format) {
	c.received.Add(1)
	switch format {
	case formats.FormatRFC5424:
		c.rfc5424.Add(1)
	case formats.FormatRFC3164:
		c.rfc3164.Add(1)
	default:
		c.unknown.Add(1)
	}

	if c.Verbose {
		log.Printf("Received %s message from %s: host=%s app=%s severity=%s",
			format, record.SourceIP, record.Hostname, record.AppName, formats.SeverityName(record.Severity))
	}
}

func (c *Counters) Stored(record models.LogRecord) {
	c.stored.Add(1)
}

func (c *Counters) StoreFailed(record models.LogRecord, err error) {
	c.storeFailures.Add(1)
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Received:      c.received.Load(),
		RFC5424:       c.rfc5424.Load(),
		RFC3164:       c.rfc3164.Load(),
		Unknown:       c.unknown.Load(),
		Stored:        c.stored.Load(),
		StoreFailures: c.storeFailures.Load(),
	}
}
