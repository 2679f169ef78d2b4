package verifier

import (
	"strings"
	"testing"

	"atlas-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	facts, err := LoadFacts("")
	require.NoError(t, err)
	return New(facts, DefaultThresholds())
}

func TestVerifyEmptyAnswer(t *testing.T) {
	v := newTestVerifier(t)

	got := v.Verify(store.CandidateAnswer{Message: "  ", Confidence: 0.9}, "anything")

	assert.Contains(t, got.Message, "specialists")
	assert.Equal(t, 0.3, got.Confidence)
	assert.True(t, got.FactChecked)
}

func TestVerifyCorrectsCriticalFacts(t *testing.T) {
	v := newTestVerifier(t)

	tests := []struct {
		name    string
		query   string
		message string
		want    []string
	}{
		{
			name:    "wrong address",
			query:   "Where is your office located?",
			message: "Our office is in Mumbai, near the airport.",
			want:    []string{"Viman Nagar", "Pune"},
		},
		{
			name:    "wrong phone",
			query:   "What is your phone number?",
			message: "Call us at +1 555 010 9999.",
			want:    []string{"+91 20 6720 1500"},
		},
		{
			name:    "wrong email",
			query:   "What is your email address?",
			message: "Write to hello@atlas.example.",
			want:    []string{"info@atlastechnosoft.com"},
		},
		{
			name:    "implausible headcount",
			query:   "How many employees do you have?",
			message: "We have 5,000 employees worldwide.",
			want:    []string{"more than 120 professionals"},
		},
		{
			name:    "wrong founding year",
			query:   "When was the company founded?",
			message: "We were founded in 1998.",
			want:    []string{"2009"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Verify(store.CandidateAnswer{Message: tt.message, Confidence: 0.6}, tt.query)

			for _, w := range tt.want {
				assert.Contains(t, got.Message, w)
			}
			assert.Equal(t, 0.9, got.Confidence)
			assert.True(t, got.FactChecked)
		})
	}
}

func TestVerifyKeepsCorrectFacts(t *testing.T) {
	v := newTestVerifier(t)
	in := store.CandidateAnswer{
		Message:    "Our head office is at 5th Floor, Solitaire Business Hub, Viman Nagar, Pune, Maharashtra 411014, India.",
		Confidence: 0.85,
		IsFAQ:      true,
	}

	got := v.Verify(in, "Where is your office?")

	assert.Equal(t, in.Message, got.Message)
	assert.Equal(t, 0.85, got.Confidence)

	got = v.Verify(store.CandidateAnswer{Message: "We have 150 consultants.", Confidence: 0.7}, "How many employees do you have?")
	assert.Equal(t, "We have 150 consultants.", got.Message)
}

func TestVerifyLowConfidence(t *testing.T) {
	v := newTestVerifier(t)

	fresh := v.Verify(store.CandidateAnswer{Message: "HANA runs in memory.", Confidence: 0.2}, "tell me about hana")
	assert.NotContains(t, fresh.Message, "HANA runs in memory.")
	assert.Equal(t, 0.3, fresh.Confidence)

	checked := store.CandidateAnswer{Message: "HANA runs in memory.", Confidence: 0.2, FactChecked: true}
	once := v.Verify(checked, "tell me about hana")
	twice := v.Verify(once, "tell me about hana")

	assert.True(t, strings.HasPrefix(once.Message, "HANA runs in memory."))
	assert.Contains(t, once.Message, lowConfidenceDisclaimer)
	assert.Equal(t, once.Message, twice.Message)
	assert.Equal(t, 0.2, once.Confidence)
}

func TestVerifyRiskDisclaimerIsIdempotent(t *testing.T) {
	v := newTestVerifier(t)
	in := store.CandidateAnswer{Message: "Our implementations are guaranteed to succeed.", Confidence: 0.8}

	once := v.Verify(in, "Will my implementation succeed?")
	twice := v.Verify(once, "Will my implementation succeed?")

	assert.Equal(t, 1, strings.Count(once.Message, riskDisclaimer))
	assert.Equal(t, once.Message, twice.Message)
	assert.Equal(t, 0.5, once.Confidence)
	assert.Equal(t, 0.5, twice.Confidence)
}

func TestRiskPatterns(t *testing.T) {
	risky := []string{
		"Results are 100% certain.",
		"Setup is free of charge.",
		"The system never fails.",
		"You get unlimited users.",
		"This fixes all your problems.",
		"We are the best partner in town.",
		"We are the only partner that can do this.",
		"Go-live happens overnight.",
	}
	for _, m := range risky {
		assert.NotNil(t, findRisk(m), m)
	}

	safe := []string{
		"A typical SAP Business One implementation takes between eight and sixteen weeks.",
		"Feel free to ask our team.",
		riskDisclaimer,
		lowConfidenceDisclaimer,
		relevanceDisclaimer,
	}
	for _, m := range safe {
		assert.Nil(t, findRisk(m), m)
	}
}

func TestVerifyScrubsUnverifiedContacts(t *testing.T) {
	v := newTestVerifier(t)
	in := store.CandidateAnswer{Message: "Email sales@atlas-tech.io or call 020 5555 1234.", Confidence: 0.6}

	got := v.Verify(in, "How can I contact you?")

	assert.Contains(t, got.Message, "info@atlastechnosoft.com")
	assert.Contains(t, got.Message, "+91 20 6720 1500")
	assert.NotContains(t, got.Message, "sales@atlas-tech.io")
	assert.Equal(t, 0.8, got.Confidence)
}

func TestVerifyLeavesVerifiedContacts(t *testing.T) {
	v := newTestVerifier(t)
	in := store.CandidateAnswer{Message: "Call 020-6720-1500 or email INFO@atlastechnosoft.com.", Confidence: 0.7}

	got := v.Verify(in, "How can I contact you?")

	assert.Equal(t, in.Message, got.Message)
	assert.Equal(t, 0.7, got.Confidence)
}

func TestVerifyCompanyIdentity(t *testing.T) {
	v := newTestVerifier(t)

	got := v.Verify(store.CandidateAnswer{Message: "We are an SAP partner.", Confidence: 0.8}, "What is Atlas Technosoft?")
	assert.Equal(t, v.Facts().CompanyDescription, got.Message)
	assert.Equal(t, 0.9, got.Confidence)

	weak := v.Verify(store.CandidateAnswer{Message: "Atlas Technosoft sells software.", Confidence: 0.5}, "who is atlas")
	assert.Equal(t, v.Facts().CompanyDescription, weak.Message)

	good := store.CandidateAnswer{Message: "Atlas Technosoft is an SAP Business One partner.", Confidence: 0.85}
	assert.Equal(t, good.Message, v.Verify(good, "What is Atlas Technosoft?").Message)
}

func TestValidateRelevance(t *testing.T) {
	v := newTestVerifier(t)
	query := "Which cloud hosting providers support HANA databases?"
	offTopic := "Atlas Technosoft offers training for business users."

	kb := v.Validate(store.CandidateAnswer{Message: offTopic, Confidence: 0.8, IsFAQ: true}, query)
	assert.True(t, strings.HasPrefix(kb.Message, offTopic))
	assert.Contains(t, kb.Message, relevanceDisclaimer)
	assert.Equal(t, 0.5, kb.Confidence)

	web := v.Validate(store.CandidateAnswer{Message: offTopic, Confidence: 0.7, IsWebSearch: true}, query)
	assert.Equal(t, webNoDirectAnswer, web.Message)
	assert.Equal(t, 0.3, web.Confidence)

	short := v.Validate(store.CandidateAnswer{Message: offTopic, Confidence: 0.8}, "SAP pricing?")
	assert.Equal(t, offTopic, short.Message)

	onTopic := store.CandidateAnswer{Message: "We host HANA databases with several cloud providers.", Confidence: 0.8}
	assert.Equal(t, onTopic.Message, v.Validate(onTopic, query).Message)
}

func TestParseFactsRequiresCoreFields(t *testing.T) {
	_, err := ParseFacts([]byte("company_name: Acme\naddress: Somewhere\nlocality_tokens: [Somewhere]\nphones: [\"+1 555 010 0000\"]\n"))
	assert.Error(t, err)
}
