package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactTaxID(t *testing.T) {
	out, changed := RedactPII(`{"CustomerName":"Acme","CustomerTaxId":"T123"}`)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if strings.Contains(out, "T123") {
		t.Fatalf("tax id leaked: %q", out)
	}
	if !strings.Contains(out, "[REDACTED_TAXID]") {
		t.Fatalf("output missing tax id marker: %q", out)
	}
}

func TestPreviewTruncatesAndRedacts(t *testing.T) {
	long := strings.Repeat("a", 80) + " sam@example.com"
	out := Preview(long, 20)
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("expected truncation suffix, got %q", out)
	}
	if len([]rune(out)) != 23 {
		t.Fatalf("len = %d, want 23", len([]rune(out)))
	}

	short := Preview("contact sam@example.com", 50)
	if strings.Contains(short, "sam@example.com") {
		t.Fatalf("email leaked in preview: %q", short)
	}
}
