package verifier

import (
	"regexp"
	"strconv"
	"strings"
)

type category int

const (
	categoryAddress category = iota
	categoryPhone
	categoryEmail
	categoryFounded
	categoryTeam
)

var categoryQueries = []struct {
	category category
	pattern  *regexp.Regexp
}{
	{categoryAddress, regexp.MustCompile(`(?i)(\b(located|location|office|headquarters?|where are you)\b|\b(postal|physical|street|office|your|company) address\b|^\s*address\b)`)},
	{categoryPhone, regexp.MustCompile(`(?i)\b(phone|telephone|mobile|call you|contact number|phone number)\b`)},
	{categoryEmail, regexp.MustCompile(`(?i)\b(e-?mail|mail id|mail address)\b`)},
	{categoryFounded, regexp.MustCompile(`(?i)\b(founded|established|founding|how old|when did .* start)\b`)},
	{categoryTeam, regexp.MustCompile(`(?i)\b(team size|how many (employees|people|staff|consultants)|employees|headcount|staff strength)\b`)},
}

var (
	headcountClaim = regexp.MustCompile(`(?i)(\d[\d,]*)\+?\s*(employees|people|professionals|staff|consultants|team members|experts)`)
	yearMention    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// checkCritical returns the verified replacement text when the answer
// contradicts the facts for any category the query asks about.
func (v *Verifier) checkCritical(message, query string) (string, bool) {
	var corrections []string
	for _, cq := range categoryQueries {
		if !cq.pattern.MatchString(query) {
			continue
		}
		if text, wrong := v.contradicts(cq.category, message); wrong {
			corrections = append(corrections, text)
		}
	}
	if len(corrections) == 0 {
		return "", false
	}
	return strings.Join(corrections, " "), true
}

func (v *Verifier) contradicts(c category, message string) (string, bool) {
	f := v.facts
	lower := strings.ToLower(message)

	switch c {
	case categoryAddress:
		for _, tok := range f.LocalityTokens {
			if strings.Contains(lower, strings.ToLower(tok)) {
				return "", false
			}
		}
		return f.addressText(), true

	case categoryPhone:
		for _, candidate := range phonePattern.FindAllString(message, -1) {
			if v.isVerifiedPhone(candidate) {
				return "", false
			}
		}
		return f.phoneText(), true

	case categoryEmail:
		found := emailPattern.FindAllString(message, -1)
		if len(found) == 0 {
			return f.emailText(), true
		}
		for _, e := range found {
			if !strings.EqualFold(e, f.Email) {
				return f.emailText(), true
			}
		}
		return "", false

	case categoryFounded:
		if f.FoundedYear == 0 {
			return "", false
		}
		want := strconv.Itoa(f.FoundedYear)
		for _, y := range yearMention.FindAllString(message, -1) {
			if y == want {
				return "", false
			}
		}
		return f.foundedText(), true

	case categoryTeam:
		for _, m := range headcountClaim.FindAllStringSubmatch(message, -1) {
			n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
			if err == nil && n > f.TeamSizeCeiling {
				return f.teamText(), true
			}
		}
		return "", false
	}
	return "", false
}
