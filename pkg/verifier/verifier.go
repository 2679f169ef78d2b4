package verifier

import (
	"regexp"
	"strings"

	"atlas-assistant-be/pkg/store"
)

type Thresholds struct {
	LowConfidence     float64
	Identity          float64
	ContactFloor      float64
	Critical          float64
	Risk              float64
	Relevance         float64
	RelevanceCap      float64
	RelevanceMinWords int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LowConfidence:     0.3,
		Identity:          0.7,
		ContactFloor:      0.8,
		Critical:          0.9,
		Risk:              0.5,
		Relevance:         0.3,
		RelevanceCap:      0.5,
		RelevanceMinWords: 3,
	}
}

// Verifier checks candidate answers against the verified facts and rewrites
// them into something safe to show. Both entry points are total.
type Verifier struct {
	facts    *Facts
	th       Thresholds
	identity *regexp.Regexp
}

func New(facts *Facts, th Thresholds) *Verifier {
	name := regexp.QuoteMeta(strings.ToLower(facts.CompanyName))
	short := regexp.QuoteMeta(strings.ToLower(strings.Fields(facts.CompanyName)[0]))
	return &Verifier{
		facts:    facts,
		th:       th,
		identity: regexp.MustCompile(`(?i)\b(what|who)\s+(is|are)\s+(the\s+company\s+)?(` + name + `|` + short + `)\b`),
	}
}

func (v *Verifier) Facts() *Facts {
	return v.facts
}

// Validate is the relevance gate applied before full verification.
func (v *Verifier) Validate(answer store.CandidateAnswer, query string) store.CandidateAnswer {
	out := answer.Clone()
	if !out.HasMessage() {
		return out
	}

	ratio, words := relevance(out.Message, query)
	if words < v.th.RelevanceMinWords || ratio >= v.th.Relevance {
		return out
	}

	if out.IsWebSearch {
		out.Message = webNoDirectAnswer
		out.Confidence = v.th.LowConfidence
		return out
	}

	out.Message = appendOnce(out.Message, relevanceDisclaimer)
	if out.Confidence > v.th.RelevanceCap {
		out.Confidence = v.th.RelevanceCap
	}
	return out
}

// Verify runs the fact, confidence, risk, contact and identity checks in order.
func (v *Verifier) Verify(answer store.CandidateAnswer, query string) store.CandidateAnswer {
	out := answer.Clone()
	wasChecked := out.FactChecked
	out.FactChecked = true

	if !out.HasMessage() {
		out.Message = v.unableToAnswer()
		out.Confidence = v.th.LowConfidence
		return out
	}

	if corrected, ok := v.checkCritical(out.Message, query); ok {
		out.Message = corrected
		out.Confidence = v.th.Critical
		return out
	}

	if out.Confidence < v.th.LowConfidence {
		if wasChecked {
			out.Message = appendOnce(out.Message, lowConfidenceDisclaimer)
		} else {
			out.Message = v.lowConfidenceFallback()
			out.Confidence = v.th.LowConfidence
		}
	}

	if findRisk(out.Message) != nil {
		out.Message = appendOnce(out.Message, riskDisclaimer)
		out.Confidence = v.th.Risk
	}

	if contactTopic.MatchString(query) || contactTopic.MatchString(out.Message) {
		if scrubbed, changed := v.scrubContacts(out.Message); changed {
			out.Message = scrubbed
			if out.Confidence < v.th.ContactFloor {
				out.Confidence = v.th.ContactFloor
			}
		}
	}

	if v.identity.MatchString(query) {
		mentions := strings.Contains(strings.ToLower(out.Message), strings.ToLower(v.facts.CompanyName))
		if !mentions || out.Confidence < v.th.Identity {
			out.Message = v.facts.CompanyDescription
			out.Confidence = v.th.Critical
		}
	}

	return out
}

func appendOnce(message, disclaimer string) string {
	if strings.Contains(message, disclaimer) {
		return message
	}
	return strings.TrimSpace(message) + "\n\n" + disclaimer
}
