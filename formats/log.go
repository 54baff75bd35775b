package formats

import (
	"strings"
	"sysrecv/models"
	"time"
	"unicode/utf8"
)

// Format identifies which grammar a message was classified as.
type Format int

const (
	FormatUnknown Format = iota
	FormatRFC5424
	FormatRFC3164
)

func (f Format) String() string {
	switch f {
	case FormatRFC5424:
		return "rfc5424"
	case FormatRFC3164:
		return "rfc3164"
	default:
		return "unknown"
	}
}

// LogParser is a partial parser for one syslog grammar.
type LogParser interface {
	// Parse returns the populated record and true when text matches the
	// grammar, or false to yield to the next parser in the chain.
	Parse(text string) (models.LogRecord, bool)

	// Format returns the grammar this parser handles.
	Format() Format
}

// parsers are tried in order, first match wins. RFC5424 goes first so a
// message satisfying both grammars is classified as structured.
var parsers = []LogParser{
	rfc5424Parser{},
	rfc3164Parser{},
}

// now is the clock used for the timestamp of unparseable messages.
var now = time.Now

// Parse converts a raw syslog payload into a LogRecord. It never fails:
// input matching no known grammar produces a fallback record.
func Parse(data []byte) models.LogRecord {
	record, _ := Classify(data)
	return record
}

// Classify is Parse that also reports which grammar matched.
func Classify(data []byte) (models.LogRecord, Format) {
	text := decode(data)

	for _, p := range parsers {
		if record, ok := p.Parse(text); ok {
			record.RawMessage = text
			return record, p.Format()
		}
	}

	return fallback(text), FormatUnknown
}

// decode converts bytes to text, replacing invalid UTF-8 sequences.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

func fallback(text string) models.LogRecord {
	return models.LogRecord{
		Priority:       0,
		Facility:       0,
		Severity:       0,
		Version:        models.VersionUnknown,
		Timestamp:      now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Hostname:       models.Unknown,
		AppName:        models.Unknown,
		ProcID:         models.Nil,
		MsgID:          models.Nil,
		StructuredData: models.Nil,
		Message:        text,
		RawMessage:     text,
	}
}

// trimFraming drops one trailing line terminator added by the sender.
func trimFraming(msg string) string {
	msg = strings.TrimSuffix(msg, "\n")
	return strings.TrimSuffix(msg, "\r")
}

var severityNames = [...]string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug"}

// SeverityName returns the keyword for a syslog severity level.
func SeverityName(severity int) string {
	if severity < 0 || severity >= len(severityNames) {
		return models.Unknown
	}
	return severityNames[severity]
}
