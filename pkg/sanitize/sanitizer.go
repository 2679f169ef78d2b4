package sanitize

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// ValidationError is returned for empty, oversized or unusable input.
// It is surfaced to the caller as-is and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	scriptBlock   = regexp.MustCompile(`(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`)
	scriptTag     = regexp.MustCompile(`(?i)<\s*/?\s*script[^>]*>`)
	frameOrImage  = regexp.MustCompile(`(?i)<\s*/?\s*(iframe|img)[^>]*>`)
	eventHandler  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURI         = regexp.MustCompile(`(?i)javascript\s*:`)
	evalCall      = regexp.MustCompile(`(?i)\beval\s*\(`)
	sqlKeywords   = regexp.MustCompile(`(?i)\b((union\s+(all\s+)?)?select\s+.+?\s+from|union\s+(all\s+)?select|insert\s+into|delete\s+from|drop\s+(table|database)|truncate\s+table|update\s+\w+\s+set|exec(ute)?\s*\()`)
	sqlComment    = regexp.MustCompile(`--|/\*|\*/|;`)
	angleBrackets = regexp.MustCompile(`[<>]`)

	quoteReplacer = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
		"′", "'", "″", `"`,
	)
)

// Sanitizer normalizes free text before it reaches the pipeline. It scrubs
// text and is not a parser; downstream interpreters must do their own escaping.
type Sanitizer struct {
	maxMessage int
	maxQuery   int
	policy     *bluemonday.Policy
}

func New(maxMessage, maxQuery int) *Sanitizer {
	return &Sanitizer{
		maxMessage: maxMessage,
		maxQuery:   maxQuery,
		policy:     bluemonday.StrictPolicy(),
	}
}

func (s *Sanitizer) MaxQuery() int {
	return s.maxQuery
}

// Message validates a chat message: required, at most maxMessage characters,
// whitespace collapsed and smart quotes folded to ASCII.
func (s *Sanitizer) Message(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: "message", Message: "Message is required"}
	}
	if utf8.RuneCountInString(trimmed) > s.maxMessage {
		return "", &ValidationError{
			Field:   "message",
			Message: fmt.Sprintf("Message exceeds maximum length of %d characters", s.maxMessage),
		}
	}
	return normalize(trimmed), nil
}

// SearchQuery validates a search-bound query and additionally strips markup,
// script vectors and SQL fragments.
func (s *Sanitizer) SearchQuery(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Field: "query", Message: "Search query is required"}
	}
	if utf8.RuneCountInString(trimmed) > s.maxQuery {
		return "", &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("Search query exceeds maximum length of %d characters", s.maxQuery),
		}
	}

	clean := s.scrub(normalize(trimmed))
	if clean == "" {
		return "", &ValidationError{Field: "query", Message: "Search query contains no searchable text"}
	}
	return clean, nil
}

// Context sanitizes conversation context entries, dropping blanks and keeping
// only the newest limit entries.
func (s *Sanitizer) Context(entries []string, limit int) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = normalize(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if utf8.RuneCountInString(e) > s.maxMessage {
			e = string([]rune(e)[:s.maxMessage])
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (s *Sanitizer) scrub(text string) string {
	text = scriptBlock.ReplaceAllString(text, " ")
	text = scriptTag.ReplaceAllString(text, " ")
	text = frameOrImage.ReplaceAllString(text, " ")
	text = eventHandler.ReplaceAllString(text, " ")
	text = jsURI.ReplaceAllString(text, " ")
	text = evalCall.ReplaceAllString(text, " ")
	text = sqlKeywords.ReplaceAllString(text, " ")
	text = sqlComment.ReplaceAllString(text, " ")

	// bluemonday escapes the text it keeps; undo that and drop any markup
	// the unescape could have revealed.
	text = html.UnescapeString(s.policy.Sanitize(text))
	text = angleBrackets.ReplaceAllString(text, " ")
	text = jsURI.ReplaceAllString(text, " ")

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

func normalize(text string) string {
	text = quoteReplacer.Replace(text)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
