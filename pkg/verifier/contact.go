package verifier

import (
	"regexp"
	"strings"
	"unicode"
)

const minPhoneDigits = 10

var (
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	contactTopic = regexp.MustCompile(`(?i)\b(contact|phone|call|telephone|mobile|e-?mail|reach|number)\b`)
)

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isVerifiedPhone compares the trailing ten digits so country-code and
// formatting variants of a verified number are accepted.
func (v *Verifier) isVerifiedPhone(candidate string) bool {
	got := digitsOf(candidate)
	if len(got) < minPhoneDigits {
		return false
	}
	got = got[len(got)-minPhoneDigits:]
	for _, p := range v.facts.Phones {
		want := digitsOf(p)
		if len(want) >= minPhoneDigits && want[len(want)-minPhoneDigits:] == got {
			return true
		}
	}
	return false
}

// scrubContacts replaces unverified phone numbers and email addresses.
func (v *Verifier) scrubContacts(message string) (string, bool) {
	changed := false

	out := phonePattern.ReplaceAllStringFunc(message, func(m string) string {
		if len(digitsOf(m)) < minPhoneDigits || v.isVerifiedPhone(m) {
			return m
		}
		changed = true
		return v.facts.PrimaryPhone()
	})

	out = emailPattern.ReplaceAllStringFunc(out, func(m string) string {
		if strings.EqualFold(m, v.facts.Email) {
			return m
		}
		changed = true
		return v.facts.Email
	})

	return out, changed
}
