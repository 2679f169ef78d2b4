package knowledge

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"atlas-assistant-be/pkg/store"

	"gopkg.in/yaml.v3"
)

//go:embed data/faq.yaml
var defaultCorpus []byte

// Entry is one authored question/answer pair.
type Entry struct {
	ID          string   `yaml:"id"`
	Question    string   `yaml:"question"`
	Keywords    []string `yaml:"keywords"`
	Answer      string   `yaml:"answer"`
	Suggestions []string `yaml:"suggestions"`
	WebSearch   bool     `yaml:"web_search"`
}

type corpus struct {
	Entries []Entry `yaml:"entries"`
}

const (
	minScore        = 0.2
	maxScore        = 0.95
	maxSuggestions  = 4
	noMatchFallback = 0.1
)

// KeywordBase scores entries by literal keyword hits in the query, with a
// smaller boost for hits in the recent conversation.
type KeywordBase struct {
	entries []Entry
}

var _ Client = (*KeywordBase)(nil)

// NewKeywordBase loads the corpus from path, or the embedded default when path is empty.
func NewKeywordBase(path string) (*KeywordBase, error) {
	data := defaultCorpus
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge base file: %w", err)
		}
		data = b
	}
	return ParseKeywordBase(data)
}

func ParseKeywordBase(data []byte) (*KeywordBase, error) {
	var c corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("invalid knowledge base format: %w", err)
	}
	if len(c.Entries) == 0 {
		return nil, fmt.Errorf("invalid knowledge base format: no entries")
	}
	for i := range c.Entries {
		for j, kw := range c.Entries[i].Keywords {
			c.Entries[i].Keywords[j] = normalizeText(kw)
		}
	}
	return &KeywordBase{entries: c.Entries}, nil
}

func (kb *KeywordBase) Query(ctx context.Context, text string, conversation []string) (store.CandidateAnswer, error) {
	if err := ctx.Err(); err != nil {
		return store.CandidateAnswer{}, &LookupError{Err: err}
	}

	query := " " + normalizeText(text) + " "
	history := " " + normalizeText(strings.Join(conversation, " ")) + " "

	var best *Entry
	bestScore := 0.0
	for i := range kb.entries {
		score := scoreEntry(&kb.entries[i], query, history)
		if score > bestScore {
			best = &kb.entries[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < minScore {
		return store.CandidateAnswer{
			Confidence:         noMatchFallback,
			ShouldUseWebSearch: true,
		}, nil
	}

	suggestions := best.Suggestions
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return store.CandidateAnswer{
		Message:            strings.TrimSpace(best.Answer),
		Confidence:         bestScore,
		IsFAQ:              true,
		ShouldUseWebSearch: best.WebSearch,
		SuggestedQuestions: append([]string(nil), suggestions...),
		MatchedID:          best.ID,
	}, nil
}

func scoreEntry(e *Entry, query, history string) float64 {
	queryHits, contextHits := 0, 0
	for _, kw := range e.Keywords {
		if kw == "" {
			continue
		}
		needle := " " + kw + " "
		switch {
		case strings.Contains(query, needle):
			queryHits++
		case strings.Contains(history, needle):
			contextHits++
		}
	}

	var score float64
	switch {
	case queryHits > 0:
		score = 0.35 + 0.25*float64(queryHits) + 0.1*float64(contextHits)
	case contextHits > 0:
		score = 0.1 + 0.05*float64(contextHits)
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

// normalizeText lowercases and turns punctuation into single spaces so
// keyword phrases match on word boundaries. Dots survive only inside numbers.
func normalizeText(s string) string {
	runes := []rune(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(runes))
	space := true
	for i, r := range runes {
		keep := unicode.IsLetter(r) || unicode.IsDigit(r)
		if r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			keep = true
		}
		if keep {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
