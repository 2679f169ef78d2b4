package websearch

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"atlas-assistant-be/pkg/store"
)

const (
	positionStep    = 0.1
	positionFloor   = 0.3
	titleTermWeight = 0.3
	recencyBonus    = 0.2
	authorityBonus  = 0.3
	maxWebScore     = 0.95
	defaultWebScore = 0.3
)

// Vendors, analyst firms and trade press.
var authorityDomains = []string{
	"sap.com", "microsoft.com", "oracle.com", "ibm.com", "uipath.com",
	"automationanywhere.com", "blueprism.com", "gartner.com", "forrester.com",
	"idc.com", "reuters.com", "bloomberg.com", "forbes.com", "zdnet.com",
	"techcrunch.com", "computerweekly.com", "cio.com", "techtarget.com",
}

// RelevanceScore scores the result at zero-based position for the given
// query terms. The result is capped below certainty.
func RelevanceScore(r RawResult, position int, terms []string, now time.Time) float64 {
	score := 1 - positionStep*float64(position)
	if score < positionFloor {
		score = positionFloor
	}

	if len(terms) > 0 {
		title := strings.ToLower(r.Title)
		found := 0
		for _, t := range terms {
			if strings.Contains(title, t) {
				found++
			}
		}
		score += titleTermWeight * float64(found) / float64(len(terms))
	}

	text := r.Title + " " + r.Snippet
	year := now.Year()
	if strings.Contains(text, strconv.Itoa(year)) || strings.Contains(text, strconv.Itoa(year-1)) {
		score += recencyBonus
	}

	if matchesDomain(domainOf(r.Link), authorityDomains) {
		score += authorityBonus
	}

	if score > maxWebScore {
		score = maxWebScore
	}
	return score
}

// Rank scores raw results in provider order and sorts them best first.
func Rank(raw []RawResult, query string, now time.Time) []store.WebResult {
	terms := queryTerms(query)
	out := make([]store.WebResult, 0, len(raw))
	for i, r := range raw {
		out = append(out, store.WebResult{
			Title:   strings.TrimSpace(r.Title),
			URL:     r.Link,
			Snippet: cleanSnippet(r.Snippet),
			Source:  domainOf(r.Link),
			Score:   RelevanceScore(r, i, terms, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// OverallConfidence is the rank-weighted mean of the top three scores.
func OverallConfidence(results []store.WebResult) float64 {
	if len(results) == 0 {
		return defaultWebScore
	}
	var sum, weights float64
	for i, r := range results {
		if i == 3 {
			break
		}
		w := 1 / float64(i+1)
		sum += r.Score * w
		weights += w
	}
	return sum / weights
}

func queryTerms(query string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, `.,;:!?"'()[]`)
		if len(w) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

func cleanSnippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, "...")
	s = strings.TrimSuffix(s, "…")
	return strings.TrimSpace(s)
}
