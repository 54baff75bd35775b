package main

import (
	"fmt"
	"sysrecv/formats"
	"time"
)

var benchFormats = []formats.Format{formats.FormatRFC5424, formats.FormatRFC3164, formats.FormatUnknown}

// generator renders numbered syslog lines.
type generator struct {
	appName  string
	hostname string
	priority int
	pick     func(seq int) formats.Format
}

// formatPicker maps a -format value to the grammar used for each message.
// "mixed" rotates through every grammar sysrecv recognizes plus raw text.
func formatPicker(name string) (func(seq int) formats.Format, error) {
	switch name {
	case "mixed":
		return func(seq int) formats.Format { return benchFormats[seq%len(benchFormats)] }, nil
	case "raw":
		name = formats.FormatUnknown.String()
	}
	for _, f := range benchFormats {
		if f.String() == name {
			return func(int) formats.Format { return f }, nil
		}
	}
	return nil, fmt.Errorf("unknown format %q", name)
}

func (g generator) line(seq int) string {
	ts := time.Now()
	switch g.pick(seq) {
	case formats.FormatRFC5424:
		return fmt.Sprintf("<%d>1 %s %s %s - BENCH%d - bench message %d",
			g.priority, ts.UTC().Format(time.RFC3339Nano), g.hostname, g.appName, seq%10, seq)
	case formats.FormatRFC3164:
		return fmt.Sprintf("<%d>%s %s %s[%d]: bench message %d",
			g.priority, ts.Format(time.Stamp), g.hostname, g.appName, seq%100, seq)
	default:
		return fmt.Sprintf("bench message %d without syslog header", seq)
	}
}
