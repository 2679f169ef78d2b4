package constant

const (
	AssistantModule = "ASSISTANT"
	WebSearchModule = "WEBSEARCH"
	VerifierModule  = "VERIFIER"
	GuardModule     = "GUARD"
	AnalyticsModule = "ANALYTICS"
)

// Error codes returned in the "code" field.
const (
	CodeInvalidInput  = "invalid_input"
	CodeNoMatch       = "no_match"
	CodeFormatError   = "format_error"
	CodeInternalError = "internal_error"
	CodeTimeout       = "timeout"
	CodeServiceBusy   = "service_busy"
	CodeRateLimited   = "rate_limited"
	CodeQuotaExceeded = "quota_exceeded"
	CodeSearchFailed  = "search_failed"
	CodeNoResults     = "no_results"
)

const (
	BreakerOpenMessage   = "Our assistant is handling a lot of requests right now. Please try again in a few minutes, or contact our team directly."
	TimeoutMessage       = "This is taking longer than usual. Please try again in a moment, or rephrase your question."
	NoMatchMessage       = "I couldn't find a good answer to that. Could you rephrase your question?"
	FormatErrorMessage   = "Your request couldn't be processed. Please check your question and try again."
	InternalErrorMessage = "Something went wrong on our side. Please try again in a moment."

	WebSearchApologyPrefix = "I tried to search the web for more up-to-date information, but I couldn't complete the search right now. Based on what I know: "
	DefaultKnowledgeText   = "Atlas Technosoft helps companies implement SAP Business One and automate business processes. Our specialists can answer detailed questions about your requirements."

	RateLimitedMessage    = "You're searching a little too quickly. Please wait a minute and try again."
	QuotaExceededMessage  = "Web search is unavailable for the rest of today. Our specialists are happy to answer your question directly."
	SearchTimeoutMessage  = "The web search is taking longer than usual. Please try again in a moment."
	SearchFailedMessage   = "I couldn't search the web right now. Please try again later."
	NoWebResultsMessage   = "I couldn't find relevant information on the web for that question."
	InvalidRequestMessage = "Invalid request body"
)

// FallbackSuggestions accompany error responses so the user always has a next step.
var FallbackSuggestions = []string{
	"What services does Atlas Technosoft offer?",
	"How can I contact your team?",
	"Can I schedule a consultation with a specialist?",
}
