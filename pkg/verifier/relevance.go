package verifier

import "strings"

var stopwords = map[string]bool{
	"what": true, "when": true, "where": true, "which": true, "whom": true,
	"does": true, "have": true, "your": true, "with": true, "this": true,
	"that": true, "there": true, "their": true, "about": true, "from": true,
	"into": true, "they": true, "them": true, "will": true, "would": true,
	"could": true, "should": true, "please": true, "tell": true, "know": true,
	"want": true, "need": true, "some": true, "more": true, "much": true,
	"many": true, "also": true, "been": true, "were": true, "like": true,
	"just": true, "than": true, "then": true, "only": true, "very": true,
	"here": true, "these": true, "those": true, "explain": true,
}

// significantWords returns the distinct query words longer than three
// characters that are not stopwords.
func significantWords(query string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, `.,;:!?"'()[]{}`)
		if len([]rune(w)) <= 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// relevance returns the fraction of significant query words present in the
// answer and how many significant words there were.
func relevance(message, query string) (float64, int) {
	words := significantWords(query)
	if len(words) == 0 {
		return 1, 0
	}
	lower := strings.ToLower(message)
	found := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			found++
		}
	}
	return float64(found) / float64(len(words)), len(words)
}
