// Package sanitize cleans text received from CI APIs before it ends up in
// logs, reports and MCP tool results. Error bodies are untrusted: they may be
// whole HTML pages or carry terminal escape sequences.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxBodyLen bounds a response body kept in an error.
const MaxBodyLen = 1024

var (
	// ANSI escape codes: \x1b[...m and other CSI sequences
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

	// OSC sequences such as hyperlinks and titles: \x1b]...\x07
	oscPattern = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
)

// StripANSI removes ANSI escape codes and OSC sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = ansiPattern.ReplaceAllString(s, "")
	return s
}

// Text strips escape sequences and drops the remaining control characters
// except newlines and tabs.
func Text(s string) string {
	s = StripANSI(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Body cleans a response body and cuts it to MaxBodyLen bytes on a rune
// boundary, noting how much was dropped.
func Body(data []byte) string {
	s := strings.TrimSpace(Text(string(data)))
	if len(s) <= MaxBodyLen {
		return s
	}

	cut := MaxBodyLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s... (%d bytes truncated)", s[:cut], len(s)-cut)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
