package websearch

import (
	"fmt"
	"regexp"
	"strings"

	"atlas-assistant-be/pkg/store"
)

const (
	directQueryMaxLen = 60
	maxCitedSources   = 3
	snippetsPerTopic  = 2
)

type topic struct {
	heading string
	match   *regexp.Regexp
}

// Checked in order; the first match wins, unmatched snippets go to general.
var topics = []topic{
	{"Key features", regexp.MustCompile(`(?i)\b(features?|modules?|functionality|capabilit(y|ies))\b`)},
	{"Versions and releases", regexp.MustCompile(`(?i)\b(versions?|releases?|updates?|upgrades?|feature packs?)\b`)},
	{"Benefits", regexp.MustCompile(`(?i)\b(benefits?|advantages?|improves?|efficien(t|cy)|roi|savings?)\b`)},
	{"Integrations", regexp.MustCompile(`(?i)\b(integrat\w*|apis?|connect\w*|sync\w*)\b`)},
}

const generalHeading = "More information"

// Synthesize turns ranked results into a prose answer with citations.
func Synthesize(query string, results []store.WebResult, directScore float64) store.CandidateAnswer {
	answer := store.CandidateAnswer{
		IsWebSearch:      true,
		WebSearchResults: results,
		Confidence:       OverallConfidence(results),
	}
	if len(results) == 0 {
		return answer
	}

	if results[0].Score > directScore && len([]rune(query)) < directQueryMaxLen {
		answer.Message = directAnswer(results)
		return answer
	}

	answer.Message = topicalAnswer(results)
	return answer
}

func directAnswer(results []store.WebResult) string {
	var b strings.Builder
	top := results[0]
	fmt.Fprintf(&b, "According to %s, %s", top.Source, sentence(top.Snippet))
	if len(results) > 1 && results[1].Snippet != "" {
		fmt.Fprintf(&b, " %s also notes: %s", results[1].Source, sentence(results[1].Snippet))
	}
	return b.String()
}

func topicalAnswer(results []store.WebResult) string {
	buckets := make(map[string][]string)
	order := make([]string, 0, len(topics)+1)
	for _, t := range topics {
		order = append(order, t.heading)
	}
	order = append(order, generalHeading)

	for _, r := range results {
		if r.Snippet == "" {
			continue
		}
		heading := generalHeading
		for _, t := range topics {
			if t.match.MatchString(r.Title + " " + r.Snippet) {
				heading = t.heading
				break
			}
		}
		if len(buckets[heading]) < snippetsPerTopic {
			buckets[heading] = append(buckets[heading], sentence(r.Snippet))
		}
	}

	paragraphs := make([]string, 0, len(order)+1)
	for _, h := range order {
		if snippets := buckets[h]; len(snippets) > 0 {
			paragraphs = append(paragraphs, h+": "+strings.Join(snippets, " "))
		}
	}
	if sources := citedSources(results); len(sources) > 0 {
		paragraphs = append(paragraphs, "Sources: "+strings.Join(sources, ", "))
	}
	return strings.Join(paragraphs, "\n\n")
}

func citedSources(results []store.WebResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		if r.Source == "" || seen[r.Source] {
			continue
		}
		seen[r.Source] = true
		out = append(out, r.Source)
		if len(out) == maxCitedSources {
			break
		}
	}
	return out
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
