package formats

import (
	"regexp"
	"strconv"
	"sysrecv/models"
)

var (
	// Example: <34>Oct 11 22:14:15 mymachine su[123]: 'su root' failed
	// The date is matched loosely and never validated against a calendar.
	rfc3164Regex = regexp.MustCompile(`(?s)^<(?P<pri>\d+)>(?P<ts>\w+\s+\d+\s+\d+:\d+:\d+)\s+(?P<host>\S+)\s+(?P<tag>[^:]+):\s*(?P<msg>.*)$`)
)

type rfc3164Parser struct{}

func (rfc3164Parser) Format() Format { return FormatRFC3164 }

// Parse parses an RFC3164 (BSD) syslog line. The legacy format carries no
// PROCID, MSGID or STRUCTURED-DATA, so those are set to the nil value and
// the TAG is kept whole as the app name.
func (rfc3164Parser) Parse(text string) (models.LogRecord, bool) {
	m := rfc3164Regex.FindStringSubmatch(text)
	if m == nil {
		return models.LogRecord{}, false
	}

	// Extract named groups
	groups := make(map[string]string)
	for i, name := range rfc3164Regex.SubexpNames() {
		if i != 0 && name != "" {
			groups[name] = m[i]
		}
	}

	// Priority -> facility/severity
	pri, err := strconv.Atoi(groups["pri"])
	if err != nil {
		return models.LogRecord{}, false
	}

	return models.LogRecord{
		Priority:       pri,
		Facility:       FacilityFromPriority(pri),
		Severity:       SeverityFromPriority(pri),
		Version:        models.VersionRFC3164,
		Timestamp:      groups["ts"],
		Hostname:       groups["host"],
		AppName:        groups["tag"],
		ProcID:         models.Nil,
		MsgID:          models.Nil,
		StructuredData: models.Nil,
		Message:        trimFraming(groups["msg"]),
	}, true
}
