package formats

import (
	"regexp"
	"strconv"
	"sysrecv/models"

	"github.com/leodido/go-syslog/v4/rfc5424"
)

var (
	// Example: <34>1 2003-10-11T22:14:15.003Z mymachine.example.com su - ID47 - 'su root' failed
	// STRUCTURED-DATA is one opaque token, MSG may span lines.
	rfc5424Regex = regexp.MustCompile(`(?s)^<(\d+)>(\d+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)(?:\s+(.*))?$`)
)

type rfc5424Parser struct{}

func (rfc5424Parser) Format() Format { return FormatRFC5424 }

func (rfc5424Parser) Parse(text string) (models.LogRecord, bool) {
	m := rfc5424Regex.FindStringSubmatch(text)
	if m == nil {
		return models.LogRecord{}, false
	}

	pri, err := strconv.Atoi(m[1])
	if err != nil {
		return models.LogRecord{}, false
	}

	return models.LogRecord{
		Priority:       pri,
		Facility:       FacilityFromPriority(pri),
		Severity:       SeverityFromPriority(pri),
		Version:        m[2],
		Timestamp:      m[3],
		Hostname:       m[4],
		AppName:        m[5],
		ProcID:         m[6],
		MsgID:          m[7],
		StructuredData: m[8],
		Message:        trimFraming(m[9]),
	}, true
}

// FacilityFromPriority extracts the facility from a syslog priority value
func FacilityFromPriority(priority int) int {
	return priority / 8
}

// SeverityFromPriority extracts the severity from a syslog priority value
func SeverityFromPriority(priority int) int {
	return priority % 8
}

// ParseStructuredData decodes the RFC5424 structured data of a raw message
// into SD-ID -> param -> value. It returns nil when the message has none or
// is not RFC5424.
func ParseStructuredData(raw string) map[string]map[string]string {
	parser := rfc5424.NewParser(rfc5424.WithBestEffort())

	// Best effort mode may return a partial message together with an error
	syslogMsg, _ := parser.Parse([]byte(raw))
	if syslogMsg == nil {
		return nil
	}

	rfc5424Msg, ok := syslogMsg.(*rfc5424.SyslogMessage)
	if !ok || rfc5424Msg == nil || rfc5424Msg.StructuredData == nil || len(*rfc5424Msg.StructuredData) == 0 {
		return nil
	}

	return *rfc5424Msg.StructuredData
}
