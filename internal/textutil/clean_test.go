package textutil

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \r\n\t ", ""},
		{"markup only", "<p></p>", ""},
		{"plain", "  Thesis title\r\n", "Thesis title"},
		{"inline markup", "On <i>Graphene</i> and <sub>2</sub>D materials", "On Graphene and 2D materials"},
		{"paragraphs", "<p>First.</p><p>Second.</p>", "First. Second."},
		{"line breaks", "one<br/>two<br>three", "one two three"},
		{"entities", "Heat &amp; mass transfer", "Heat & mass transfer"},
		{"script dropped", "Title<script>alert(1)</script>", "Title"},
		{"collapse runs", "a \n\n  b\t\tc", "a b c"},
		{"nfc", "Go\u0308teborg", "G\u00f6teborg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanText(tc.input); got != tc.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCompactIdentifier(t *testing.T) {
	if got := CompactIdentifier(" 978-91-7905-123-4 "); got != "9789179051234" {
		t.Fatalf("unexpected compact isbn %q", got)
	}
	if got := CompactIdentifier("978 91 7905"); got != "978917905" {
		t.Fatalf("unexpected compact value %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(" 10.1234/abc:def "); got != "10.1234-abc-def" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
	if got := SanitizeFileName("   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", " x ", "y"); got != "x" {
		t.Fatalf("unexpected value %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
