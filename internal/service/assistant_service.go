package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"atlas-assistant-be/internal/config"
	"atlas-assistant-be/internal/constant"
	"atlas-assistant-be/internal/dto"
	"atlas-assistant-be/internal/pkg/logger"
	"atlas-assistant-be/internal/repository/memory"
	"atlas-assistant-be/pkg/breaker"
	"atlas-assistant-be/pkg/events"
	"atlas-assistant-be/pkg/guard"
	"atlas-assistant-be/pkg/knowledge"
	"atlas-assistant-be/pkg/sanitize"
	"atlas-assistant-be/pkg/store"
	"atlas-assistant-be/pkg/suggest"
	"atlas-assistant-be/pkg/verifier"
	"atlas-assistant-be/pkg/websearch"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IAssistantService interface {
	// Chat runs the full pipeline including the web-search fallback.
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	// LocalChat stops after the knowledge base and flags answers that need the web.
	LocalChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	WebSearch(ctx context.Context, clientID string, req *dto.SearchRequest) (*dto.SearchResponse, error)
	RecordAnalytics(ctx context.Context, req *dto.AnalyticsRequest)
	Status(ctx context.Context) *dto.AssistantStatusResponse
	ResetProtection(ctx context.Context)
}

type QueryEnhancer interface {
	Enhance(text string) string
}

type WebAnswerer interface {
	Answer(ctx context.Context, query string, conversation []string) (store.CandidateAnswer, error)
}

type EventTracker interface {
	Track(e events.Event)
}

type AssistantDependencies struct {
	Config      config.AssistantConfig
	Guard       config.GuardConfig
	SearchLimit time.Duration // server-side ceiling of the search endpoint

	Knowledge knowledge.Client
	Enhancer  QueryEnhancer
	Searcher  WebAnswerer
	Verifier  *verifier.Verifier
	Sanitizer *sanitize.Sanitizer
	Breaker   *breaker.Tracker
	Limiter   *guard.RateLimiter
	Quota     *guard.Quota
	Sessions  *memory.SessionRepository
	Events    EventTracker
	Logger    logger.ILogger
}

type assistantService struct {
	cfg         config.AssistantConfig
	guardCfg    config.GuardConfig
	searchLimit time.Duration

	kb        knowledge.Client
	enhancer  QueryEnhancer
	searcher  WebAnswerer
	verifier  *verifier.Verifier
	sanitizer *sanitize.Sanitizer
	breaker   *breaker.Tracker
	limiter   *guard.RateLimiter
	quota     *guard.Quota
	sessions  *memory.SessionRepository
	events    EventTracker
	logger    logger.ILogger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewAssistantService(deps AssistantDependencies) IAssistantService {
	return &assistantService{
		cfg:         deps.Config,
		guardCfg:    deps.Guard,
		searchLimit: deps.SearchLimit,
		kb:          deps.Knowledge,
		enhancer:    deps.Enhancer,
		searcher:    deps.Searcher,
		verifier:    deps.Verifier,
		sanitizer:   deps.Sanitizer,
		breaker:     deps.Breaker,
		limiter:     deps.Limiter,
		quota:       deps.Quota,
		sessions:    deps.Sessions,
		events:      deps.Events,
		logger:      deps.Logger,
		tracer:      otel.Tracer("atlas-assistant/assistant"),
		now:         time.Now,
	}
}

type pipelineResult struct {
	answer         store.CandidateAnswer
	needsWebSearch bool
}

func (s *assistantService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	return s.respond(ctx, req, true)
}

func (s *assistantService) LocalChat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	return s.respond(ctx, req, false)
}

func (s *assistantService) respond(ctx context.Context, req *dto.ChatRequest, withWeb bool) (*dto.ChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.chat", trace.WithAttributes(attribute.Bool("assistant.web_enabled", withWeb)))
	defer span.End()

	if s.breaker.ShouldBreak() {
		s.logger.Warn(constant.AssistantModule, "Circuit breaker open, rejecting request", nil)
		s.track(events.AssistantBreakerOpen, nil)
		span.SetStatus(codes.Error, constant.CodeServiceBusy)
		return nil, s.chatError(503, constant.CodeServiceBusy, constant.BreakerOpenMessage, "Service temporarily unavailable")
	}

	text, err := s.sanitizer.Message(req.Message)
	if err != nil {
		var ve *sanitize.ValidationError
		detail := err.Error()
		if errors.As(err, &ve) {
			detail = ve.Message
		}
		span.SetStatus(codes.Error, constant.CodeInvalidInput)
		return nil, s.chatError(400, constant.CodeInvalidInput, constant.FormatErrorMessage, detail)
	}

	conversation := s.sanitizer.Context(req.Context, s.cfg.ContextWindow)
	if req.SessionId != "" {
		if len(conversation) == 0 {
			conversation = s.sessions.Recent(req.SessionId)
		}
		s.sessions.Append(req.SessionId, text)
	}

	started := s.now()
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	type outcome struct {
		result pipelineResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("pipeline panic: %v", r)}
			}
		}()
		res, err := s.pipeline(runCtx, text, conversation, withWeb)
		done <- outcome{result: res, err: err}
	}()

	var out outcome
	timedOut := false
	select {
	case <-runCtx.Done():
		timedOut = true
	case out = <-done:
		// a pipeline that failed because its deadline passed counts as a timeout
		timedOut = out.err != nil && runCtx.Err() != nil
	}

	if timedOut {
		s.breaker.RecordTimeout()
		s.logger.Warn(constant.AssistantModule, "Request timed out", map[string]interface{}{
			"timeout_ms": s.cfg.RequestTimeout.Milliseconds(),
		})
		s.track(events.AssistantQueryTimeout, map[string]interface{}{"timeout_ms": s.cfg.RequestTimeout.Milliseconds()})
		span.SetStatus(codes.Error, constant.CodeTimeout)
		return nil, s.chatError(408, constant.CodeTimeout, constant.TimeoutMessage, "Request timed out")
	}

	if out.err != nil {
		s.breaker.RecordError()
		status, code, message, detail := classifyFailure(out.err)
		s.logger.Error(constant.AssistantModule, "Pipeline failed", map[string]interface{}{
			"error": out.err.Error(),
			"code":  code,
		})
		s.track(events.AssistantQueryFailed, map[string]interface{}{"code": code})
		span.RecordError(out.err)
		span.SetStatus(codes.Error, code)
		return nil, s.chatError(status, code, message, detail)
	}

	s.breaker.RecordSuccess()
	a := out.result.answer
	s.track(events.AssistantQueryAnswered, map[string]interface{}{
		"confidence":    a.Confidence,
		"is_web_search": a.IsWebSearch,
		"is_faq":        a.IsFAQ,
		"matched_id":    a.MatchedID,
		"local":         !withWeb,
		"duration_ms":   s.now().Sub(started).Milliseconds(),
	})
	span.SetAttributes(attribute.Float64("assistant.confidence", a.Confidence))
	return s.chatResponse(out.result), nil
}

func (s *assistantService) pipeline(ctx context.Context, text string, conversation []string, withWeb bool) (pipelineResult, error) {
	answer, err := s.kb.Query(ctx, text, conversation)
	if err != nil {
		// Treated as a deferral so the web fallback or the canned reply answers.
		s.logger.Warn(constant.AssistantModule, "Knowledge base lookup failed", map[string]interface{}{"error": err.Error()})
		answer = store.CandidateAnswer{ShouldUseWebSearch: true}
	} else if answer.Confidence < s.cfg.WeakMatchThreshold {
		answer = s.enhanceAndRequery(ctx, text, conversation, answer)
	}

	needsWeb := answer.ShouldUseWebSearch || !answer.HasMessage()
	if needsWeb && withWeb {
		answer = s.webFallback(ctx, text, conversation, answer)
		needsWeb = false
	}

	answer = s.verifier.Validate(answer, text)
	if len(answer.SuggestedQuestions) == 0 {
		answer.SuggestedQuestions = suggest.Generate(answer.Message, text)
	}
	answer = s.verifier.Verify(answer, text)

	return pipelineResult{answer: answer, needsWebSearch: needsWeb}, nil
}

// enhanceAndRequery runs exactly one rewrite cycle. The rewritten result wins
// only with strictly higher confidence.
func (s *assistantService) enhanceAndRequery(ctx context.Context, text string, conversation []string, original store.CandidateAnswer) store.CandidateAnswer {
	enhanced := s.enhancer.Enhance(text)
	if enhanced == "" || enhanced == text {
		return original
	}

	retry, err := s.kb.Query(ctx, enhanced, conversation)
	if err != nil {
		s.logger.Warn(constant.AssistantModule, "Requery after enhancement failed", map[string]interface{}{"error": err.Error()})
		return original
	}
	if retry.Confidence > original.Confidence {
		s.logger.Debug(constant.AssistantModule, "Adopted enhanced query", map[string]interface{}{
			"enhanced": enhanced,
			"from":     original.Confidence,
			"to":       retry.Confidence,
		})
		return retry
	}
	return original
}

// webFallback never fails: when the search does not produce an answer the
// prior candidate is returned with an explanation.
func (s *assistantService) webFallback(ctx context.Context, text string, conversation []string, prior store.CandidateAnswer) store.CandidateAnswer {
	webCtx, cancel := context.WithTimeout(ctx, s.cfg.WebSearchTimeout)
	defer cancel()

	web, err := s.searchWeb(webCtx, text, conversation)
	if err == nil && web.HasMessage() {
		if len(web.SuggestedQuestions) == 0 {
			web.SuggestedQuestions = prior.SuggestedQuestions
		}
		s.track(events.AssistantWebSearch, map[string]interface{}{
			"origin":  "fallback",
			"success": true,
			"results": len(web.WebSearchResults),
		})
		return web
	}

	kind := websearch.KindNoResults
	if err != nil {
		kind = websearch.KindOf(err)
		if errors.Is(err, context.DeadlineExceeded) {
			kind = constant.CodeTimeout
		}
	}
	s.logger.Warn(constant.WebSearchModule, "Web fallback unavailable, using knowledge base answer", map[string]interface{}{
		"kind": string(kind),
	})
	s.track(events.AssistantWebSearch, map[string]interface{}{
		"origin":  "fallback",
		"success": false,
		"kind":    string(kind),
	})

	degraded := prior.Clone()
	base := strings.TrimSpace(prior.Message)
	if base == "" {
		base = constant.DefaultKnowledgeText
	}
	degraded.Message = constant.WebSearchApologyPrefix + base
	degraded.ShouldUseWebSearch = false
	if degraded.Confidence < s.cfg.LowConfidenceThreshold {
		degraded.Confidence = s.cfg.LowConfidenceThreshold
	}
	return degraded
}

// searchWeb races the search against ctx so a provider that ignores
// cancellation cannot hold the request.
func (s *assistantService) searchWeb(ctx context.Context, text string, conversation []string) (store.CandidateAnswer, error) {
	query, err := s.sanitizer.SearchQuery(truncateRunes(text, s.sanitizer.MaxQuery()))
	if err != nil {
		return store.CandidateAnswer{}, err
	}

	type result struct {
		answer store.CandidateAnswer
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		a, err := s.searcher.Answer(ctx, query, conversation)
		ch <- result{a, err}
	}()

	select {
	case <-ctx.Done():
		return store.CandidateAnswer{}, ctx.Err()
	case r := <-ch:
		return r.answer, r.err
	}
}

func (s *assistantService) WebSearch(ctx context.Context, clientID string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assistant.web_search")
	defer span.End()

	query, err := s.sanitizer.SearchQuery(req.Query)
	if err != nil {
		var ve *sanitize.ValidationError
		detail := err.Error()
		if errors.As(err, &ve) {
			detail = ve.Message
		}
		return nil, s.searchError(400, constant.CodeInvalidInput, constant.FormatErrorMessage, detail)
	}

	allowed, err := s.limiter.CheckAndRecord(ctx, clientID)
	if err != nil {
		s.logger.Error(constant.GuardModule, "Rate limit store failed, denying request", map[string]interface{}{"error": err.Error()})
	}
	if !allowed {
		s.logger.Info(constant.GuardModule, "Search rate limited", map[string]interface{}{"client": clientID})
		return nil, s.searchError(429, constant.CodeRateLimited, constant.RateLimitedMessage, "Too many search requests")
	}
	if !s.quota.HasQuota() {
		return nil, s.searchError(429, constant.CodeQuotaExceeded, constant.QuotaExceededMessage, "Daily search quota exceeded")
	}

	conversation := s.sanitizer.Context(req.Context, s.cfg.ContextWindow)
	searchCtx, cancel := context.WithTimeout(ctx, s.searchLimit)
	defer cancel()

	answer, err := s.searchWeb(searchCtx, query, conversation)
	if err != nil {
		if errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			err = searchCtx.Err()
		}
		s.track(events.AssistantWebSearch, map[string]interface{}{
			"origin":  "endpoint",
			"success": false,
			"kind":    string(websearch.KindOf(err)),
		})
		span.RecordError(err)
		return s.searchFailure(err)
	}

	answer = s.verifier.Validate(answer, query)
	if len(answer.SuggestedQuestions) == 0 {
		answer.SuggestedQuestions = suggest.Generate(answer.Message, query)
	}
	answer = s.verifier.Verify(answer, query)

	s.track(events.AssistantWebSearch, map[string]interface{}{
		"origin":     "endpoint",
		"success":    true,
		"results":    len(answer.WebSearchResults),
		"confidence": answer.Confidence,
	})

	conf := answer.Confidence
	return &dto.SearchResponse{
		Message:            answer.Message,
		IsWebSearch:        true,
		WebSearchResults:   toResultDTOs(answer.WebSearchResults),
		Confidence:         &conf,
		SuggestedQuestions: answer.SuggestedQuestions,
		Timestamp:          s.now().UTC(),
		RequestId:          uuid.NewString(),
	}, nil
}

func (s *assistantService) searchFailure(err error) (*dto.SearchResponse, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn(constant.WebSearchModule, "Search endpoint timed out", nil)
		return nil, s.searchError(408, constant.CodeTimeout, constant.SearchTimeoutMessage, "Search timed out")
	}

	kind := websearch.KindOf(err)
	s.logger.Warn(constant.WebSearchModule, "Search failed", map[string]interface{}{
		"kind":  string(kind),
		"error": err.Error(),
	})

	switch kind {
	case websearch.KindQuotaExceeded, websearch.KindInvalidAPIKey, websearch.KindForbidden:
		return nil, s.searchError(429, constant.CodeQuotaExceeded, constant.QuotaExceededMessage, "Daily search quota exceeded")
	case websearch.KindRateLimited:
		return nil, s.searchError(429, constant.CodeRateLimited, constant.RateLimitedMessage, "Search provider rate limited")
	case websearch.KindNoResults:
		conf := s.cfg.LowConfidenceThreshold
		return &dto.SearchResponse{
			Message:            constant.NoWebResultsMessage,
			IsWebSearch:        true,
			Confidence:         &conf,
			Code:               constant.CodeNoResults,
			SuggestedQuestions: constant.FallbackSuggestions,
			Timestamp:          s.now().UTC(),
			RequestId:          uuid.NewString(),
		}, nil
	}
	return nil, s.searchError(500, constant.CodeSearchFailed, constant.SearchFailedMessage, "Search failed")
}

func (s *assistantService) RecordAnalytics(ctx context.Context, req *dto.AnalyticsRequest) {
	payload := make(map[string]interface{}, len(req.Payload)+1)
	for k, v := range req.Payload {
		payload[k] = v
	}
	if req.Timestamp != nil {
		payload["client_timestamp"] = req.Timestamp.UTC()
	}
	s.track(events.ClientEventPrefix+eventName(req.Event), payload)
}

func (s *assistantService) Status(ctx context.Context) *dto.AssistantStatusResponse {
	open := s.breaker.ShouldBreak()
	snap := s.breaker.Snapshot()
	quota := s.quota.Snapshot()

	status := &dto.AssistantStatusResponse{
		Breaker: dto.BreakerStatusDTO{
			ErrorCount:          snap.Count,
			ConsecutiveTimeouts: snap.ConsecutiveTimeouts,
			LastResetAt:         snap.LastResetAt,
			Open:                open,
		},
		Quota: dto.QuotaStatusDTO{
			Used:    quota.Used,
			Limit:   quota.Limit,
			ResetAt: quota.ResetAt,
		},
		RateLimit: dto.RateLimitStatusDTO{
			Backend:       s.guardCfg.RateLimitBackend,
			Limit:         s.limiter.Limit(),
			WindowSeconds: int(s.limiter.Window().Seconds()),
		},
		Sessions: s.sessions.Count(),
	}
	if !snap.LastErrorAt.IsZero() {
		t := snap.LastErrorAt
		status.Breaker.LastErrorAt = &t
	}
	return status
}

func (s *assistantService) ResetProtection(ctx context.Context) {
	s.breaker.Reset()
	s.logger.Info(constant.GuardModule, "Circuit breaker reset manually", nil)
}

func (s *assistantService) track(eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Track(events.New(eventType, payload))
}

func (s *assistantService) chatResponse(res pipelineResult) *dto.ChatResponse {
	a := res.answer
	conf := a.Confidence
	return &dto.ChatResponse{
		Message:            a.Message,
		SuggestedQuestions: a.SuggestedQuestions,
		Confidence:         &conf,
		FactChecked:        a.FactChecked,
		IsFaq:              a.IsFAQ,
		IsWebSearch:        a.IsWebSearch,
		NeedsWebSearch:     res.needsWebSearch,
		WebSearchResults:   toResultDTOs(a.WebSearchResults),
		Timestamp:          s.now().UTC(),
		RequestId:          uuid.NewString(),
	}
}

func (s *assistantService) chatError(status int, code, message, detail string) *dto.AssistantError {
	return &dto.AssistantError{
		Status: status,
		Code:   code,
		Body: &dto.ChatResponse{
			Message:            message,
			Error:              detail,
			Code:               code,
			SuggestedQuestions: constant.FallbackSuggestions,
			Timestamp:          s.now().UTC(),
			RequestId:          uuid.NewString(),
		},
	}
}

func (s *assistantService) searchError(status int, code, message, detail string) *dto.AssistantError {
	return &dto.AssistantError{
		Status: status,
		Code:   code,
		Body: &dto.SearchResponse{
			Message:            message,
			IsWebSearch:        true,
			Error:              detail,
			Code:               code,
			SuggestedQuestions: constant.FallbackSuggestions,
			Timestamp:          s.now().UTC(),
			RequestId:          uuid.NewString(),
		},
	}
}

// classifyFailure maps a pipeline error onto status, code, user message and detail.
func classifyFailure(err error) (int, string, string, string) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "knowledge base") || strings.Contains(msg, "match"):
		return 500, constant.CodeNoMatch, constant.NoMatchMessage, "No matching answer found"
	case strings.Contains(msg, "format") || strings.Contains(msg, "invalid"):
		return 400, constant.CodeFormatError, constant.FormatErrorMessage, "Invalid request format"
	}
	return 500, constant.CodeInternalError, constant.InternalErrorMessage, "Internal server error"
}

func toResultDTOs(results []store.WebResult) []dto.WebSearchResultDTO {
	if len(results) == 0 {
		return nil
	}
	out := make([]dto.WebSearchResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, dto.WebSearchResultDTO{
			Title:   r.Title,
			Url:     r.URL,
			Snippet: r.Snippet,
			Source:  r.Source,
		})
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func eventName(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
