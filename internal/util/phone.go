package util

import (
	"regexp"
	"strings"
)

var phoneCharsRe = regexp.MustCompile(`^[\d\s\-\+\(\)\.]+$`)

// ValidPhone reports whether raw only uses digits, spaces and + - ( ) . characters.
// Formatting is left as the visitor typed it.
func ValidPhone(raw string) bool {
	return phoneCharsRe.MatchString(raw)
}

// PhoneDigits strips everything but digits and a leading +, for tel: links and logs.
func PhoneDigits(raw string) string {
	s := strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range s {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
