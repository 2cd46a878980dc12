package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	taxIDPattern = regexp.MustCompile(`(?i)(?:customertaxid|tax\s*id)"?\s*[:=]?\s*"?[A-Za-z0-9\-]+"?`)
)

// RedactPII masks high-risk patterns before user text reaches telemetry
// properties. Tax identifiers are masked because account creation payloads
// pass through the dispatcher as free text.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := taxIDPattern.ReplaceAllString(out, "[REDACTED_TAXID]")
	changed = changed || next != out
	out = next

	next = emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	// Run card redaction before phone to avoid card numbers being classified as phone.
	next = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

// Preview truncates user text for telemetry properties and masks PII in the
// retained prefix.
func Preview(input string, max int) string {
	if max <= 0 {
		max = 50
	}
	runes := []rune(input)
	if len(runes) > max {
		input = string(runes[:max]) + "..."
	}
	out, _ := RedactPII(input)
	return out
}
