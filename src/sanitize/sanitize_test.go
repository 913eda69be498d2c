package sanitize

import (
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "color codes",
			input:    "\x1b[31mERROR\x1b[0m: something failed",
			expected: "ERROR: something failed",
		},
		{
			name:     "no ANSI",
			input:    "plain text message",
			expected: "plain text message",
		},
		{
			name:     "multiple codes",
			input:    "\x1b[1m\x1b[31mbold red\x1b[0m normal",
			expected: "bold red normal",
		},
		{
			name:     "cursor movement",
			input:    "\x1b[2Kprogress\x1b[1A",
			expected: "progress",
		},
		{
			name:     "hyperlink",
			input:    "\x1b]8;;https://example.com\x07link\x1b]8;;\x07",
			expected: "link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripANSI(tt.input)
			if result != tt.expected {
				t.Errorf("StripANSI(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestText(t *testing.T) {
	got := Text("line one\r\n\tline\x00 two\x07\x1b[0m")
	want := "line one\n\tline two"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestBody(t *testing.T) {
	if got := Body([]byte("  {\"message\":\"access denied\"}\n")); got != `{"message":"access denied"}` {
		t.Errorf("Body() = %q", got)
	}

	long := strings.Repeat("a", MaxBodyLen+10)
	got := Body([]byte(long))
	if !strings.HasSuffix(got, "... (10 bytes truncated)") {
		t.Errorf("Body() suffix = %q", got[len(got)-30:])
	}
	if !strings.HasPrefix(got, strings.Repeat("a", MaxBodyLen)) {
		t.Error("Body() should keep the first MaxBodyLen bytes")
	}
}

func TestBody_CutsOnRuneBoundary(t *testing.T) {
	// 'é' is two bytes; place one across the limit.
	s := strings.Repeat("a", MaxBodyLen-1) + "é" + "tail"

	got := Body([]byte(s))

	if strings.Contains(got, "�") || !strings.HasPrefix(got, strings.Repeat("a", MaxBodyLen-1)+"...") {
		t.Errorf("Body() = %q, want the cut before the multi-byte rune", got[MaxBodyLen-5:])
	}
}
