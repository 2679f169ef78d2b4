package enhancer

import (
	"regexp"
	"strings"
)

var (
	leadingInterrogative = regexp.MustCompile(`(?i)^\s*(what|how|when|where|which|who|why|can|do|does|is|are)\b\s*`)
	leadingMarks         = regexp.MustCompile(`^[\s?¿]+`)
	trailingMarks        = regexp.MustCompile(`[\s?]+$`)
	whitespace           = regexp.MustCompile(`\s+`)
)

// Expansion appends Suffix when Trigger matches and Qualifier does not.
type Expansion struct {
	Trigger   *regexp.Regexp
	Qualifier *regexp.Regexp
	Suffix    string
}

var defaultExpansions = []Expansion{
	{
		Trigger:   regexp.MustCompile(`(?i)\bsap\b`),
		Qualifier: regexp.MustCompile(`(?i)\bbusiness\s+one\b`),
		Suffix:    "Business One ERP",
	},
	{
		Trigger:   regexp.MustCompile(`(?i)\b(rpa|automation|bots?)\b`),
		Qualifier: regexp.MustCompile(`(?i)\brobotic\s+process\s+automation\b`),
		Suffix:    "robotic process automation platform",
	},
}

// Enhancer rewrites weakly matched questions into a form the keyword base
// is more likely to score.
type Enhancer struct {
	expansions []Expansion
}

func New() *Enhancer {
	return &Enhancer{expansions: defaultExpansions}
}

func NewWithExpansions(expansions []Expansion) *Enhancer {
	return &Enhancer{expansions: expansions}
}

// Enhance is stable under repetition: leading interrogatives are stripped
// until none remain, and every suffix it appends contains its own qualifier.
func (e *Enhancer) Enhance(text string) string {
	out := strings.TrimSpace(text)
	for {
		next := leadingMarks.ReplaceAllString(out, "")
		next = leadingInterrogative.ReplaceAllString(next, "")
		if next == out {
			break
		}
		out = next
	}
	out = trailingMarks.ReplaceAllString(out, "")

	for _, x := range e.expansions {
		if x.Trigger.MatchString(out) && !x.Qualifier.MatchString(out) {
			out += " " + x.Suffix
		}
	}

	return whitespace.ReplaceAllString(strings.TrimSpace(out), " ")
}
