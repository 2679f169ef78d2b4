package verifier

import "fmt"

const (
	lowConfidenceDisclaimer = "Please note: this answer may be incomplete. Our team can confirm the details for you."
	riskDisclaimer          = "Outcomes depend on your business requirements, so please consult one of our specialists for advice specific to your situation."
	relevanceDisclaimer     = "If this doesn't fully answer your question, please rephrase it or ask our team for details."
	webNoDirectAnswer       = "I searched the web but couldn't find a direct answer to your question. Could you rephrase it, or would you like to speak with one of our specialists?"
)

func (v *Verifier) unableToAnswer() string {
	return fmt.Sprintf("I'm sorry, I couldn't find a reliable answer to that. Would you like to talk to one of our specialists? You can call us at %s or email %s.",
		v.facts.PrimaryPhone(), v.facts.Email)
}

func (v *Verifier) lowConfidenceFallback() string {
	return fmt.Sprintf("I'm not fully sure about that one. Our specialists can give you an accurate answer: call %s or email %s.",
		v.facts.PrimaryPhone(), v.facts.Email)
}
