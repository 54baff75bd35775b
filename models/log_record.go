package models

import (
	"time"
)

// Placeholder values written into fields the sender did not provide.
const (
	// Nil is the syslog NILVALUE: the field is absent on the wire.
	Nil = "-"
	// Unknown marks fields of a message that matched no known grammar.
	Unknown = "unknown"
)

// Version values. VersionRFC5424 is only the usual value: structured
// messages keep whatever version token they carried.
const (
	VersionRFC5424 = "1"
	VersionRFC3164 = "0"
	VersionUnknown = Unknown
)

// LogRecord is one received syslog message.
// It's used both for database operations and API responses
type LogRecord struct {
	ID             string    `json:"id"`
	Priority       int       `json:"priority"`
	Facility       int       `json:"facility"`
	Severity       int       `json:"severity"`
	Version        string    `json:"version"`
	Timestamp      string    `json:"timestamp"` // Verbatim from the message
	Hostname       string    `json:"hostname"`
	AppName        string    `json:"appName"`
	ProcID         string    `json:"procId"`
	MsgID          string    `json:"msgId"`
	StructuredData string    `json:"structuredData"` // Opaque, as received
	Message        string    `json:"message"`
	RawMessage     string    `json:"rawMessage"`
	SourceIP       string    `json:"sourceIp"`
	ReceivedAt     time.Time `json:"receivedAt"`

	// Derived on read for API responses, never stored
	StructuredDataParams map[string]map[string]string `json:"structuredDataParams,omitempty"`
}

// Reliable reports whether the header fields were extracted from the
// message. For unreliable records severity 0 is a sentinel, not an emergency.
func (r LogRecord) Reliable() bool {
	return r.Version != VersionUnknown
}
