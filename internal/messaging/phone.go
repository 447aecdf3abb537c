package messaging

import "strings"

// NormalizeMSISDN reduces a phone number to digits-only international
// form, as required by the SMS gateway ("+39 333 123 4567" -> "393331234567").
func NormalizeMSISDN(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
