package verifier

import "regexp"

// riskPatterns are scanned in order; the first hit is enough.
var riskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\b100\s?%|\bguarantee(s|d)?\b|\brisk[- ]free\b)`),
	regexp.MustCompile(`(?i)\b(free of (charge|cost)|for free|no cost|zero cost|completely free|free trial)\b`),
	regexp.MustCompile(`(?i)\b(never (fails?|breaks?|goes down)|always (works|succeeds|delivers|on time))\b`),
	regexp.MustCompile(`(?i)\b(unlimited|forever|lifetime (access|licen[cs]e|support))\b`),
	regexp.MustCompile(`(?i)\b(cures?|fix(es)?|solves?) (all|every|any)( of)? (your )?(problems?|issues?)\b`),
	regexp.MustCompile(`(?i)(\bthe best\b|\bworld'?s (best|leading)\b|\bnumber one\b|#1\b|\bindustry[- ]leading\b|\bunmatched\b|\bunbeatable\b)`),
	regexp.MustCompile(`(?i)\b(the only (company|partner|provider|one)|exclusive(ly)? (partner|provider|rights))\b`),
	regexp.MustCompile(`(?i)\b(instant(ly)?|immediate(ly)?|overnight|in minutes|within (minutes|seconds))\b`),
}

func findRisk(message string) *regexp.Regexp {
	for _, p := range riskPatterns {
		if p.MatchString(message) {
			return p
		}
	}
	return nil
}
