package sms

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^(\+98|0098|0)?9\d{9}$`)

func stripSpaces(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

// ValidPhoneNumber reports whether phone is an Iranian mobile number in
// local (09...), international (+98 / 0098) or bare (9...) form.
func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(stripSpaces(phone))
}

// NormalizePhoneNumber converts a valid mobile number into the local 0-prefixed form.
func NormalizePhoneNumber(phone string) string {
	p := stripSpaces(phone)
	switch {
	case strings.HasPrefix(p, "+98"):
		p = "0" + strings.TrimPrefix(p, "+98")
	case strings.HasPrefix(p, "0098"):
		p = "0" + strings.TrimPrefix(p, "0098")
	case !strings.HasPrefix(p, "0"):
		p = "0" + p
	}
	return p
}
