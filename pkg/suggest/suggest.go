package suggest

import (
	"regexp"
	"strings"
)

const MaxSuggestions = 3

type bucket struct {
	match     *regexp.Regexp
	questions []string
}

var buckets = []bucket{
	{
		match: regexp.MustCompile(`(?i)\b(sap|business one|b1|erp|hana)\b`),
		questions: []string{
			"What modules does SAP Business One include?",
			"How long does an SAP Business One implementation take?",
		},
	},
	{
		match: regexp.MustCompile(`(?i)\b(rpa|automation|automate|bots?|workflow)\b`),
		questions: []string{
			"Which processes are good candidates for automation?",
			"How do RPA bots work with SAP Business One?",
		},
	},
	{
		match: regexp.MustCompile(`(?i)\b(implementation|implement|go-?live|migration|rollout|deploy\w*)\b`),
		questions: []string{
			"What happens during the discovery phase?",
			"Do you offer support after go-live?",
		},
	},
	{
		match: regexp.MustCompile(`(?i)\b(price|pricing|cost|costs|quote|licen[cs]e|budget)\b`),
		questions: []string{
			"How do I request a proposal?",
			"What affects the cost of an implementation?",
		},
	},
	{
		match: regexp.MustCompile(`(?i)\b(industry|industries|manufacturing|distribution|retail|pharma\w*)\b`),
		questions: []string{
			"Which industries do you work with?",
			"Do you have experience in manufacturing?",
		},
	},
}

var generic = []string{
	"What services does Atlas Technosoft offer?",
	"How can I contact your team?",
	"Can I schedule a consultation with a specialist?",
}

// Generate picks up to three follow-up questions for the answer and query,
// topic matches first, generic engagement questions after.
func Generate(answer, query string) []string {
	text := query + " " + answer
	seen := make(map[string]bool)
	out := make([]string, 0, MaxSuggestions)

	add := func(q string) bool {
		key := strings.ToLower(q)
		if seen[key] || strings.EqualFold(strings.TrimSpace(query), q) {
			return false
		}
		seen[key] = true
		out = append(out, q)
		return len(out) == MaxSuggestions
	}

	for _, b := range buckets {
		if !b.match.MatchString(text) {
			continue
		}
		for _, q := range b.questions {
			if add(q) {
				return out
			}
		}
	}
	for _, q := range generic {
		if add(q) {
			return out
		}
	}
	return out
}
