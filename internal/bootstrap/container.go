package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"atlas-assistant-be/internal/config"
	"atlas-assistant-be/internal/constant"
	"atlas-assistant-be/internal/controller"
	"atlas-assistant-be/internal/pkg/logger"
	"atlas-assistant-be/internal/repository/memory"
	"atlas-assistant-be/internal/service"
	"atlas-assistant-be/pkg/analytics"
	"atlas-assistant-be/pkg/breaker"
	"atlas-assistant-be/pkg/enhancer"
	"atlas-assistant-be/pkg/guard"
	"atlas-assistant-be/pkg/knowledge"
	pktNats "atlas-assistant-be/pkg/nats"
	"atlas-assistant-be/pkg/sanitize"
	"atlas-assistant-be/pkg/scheduler"
	"atlas-assistant-be/pkg/verifier"
	"atlas-assistant-be/pkg/websearch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController
	AdminController     controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	Scheduler       *scheduler.Scheduler

	Logger logger.ILogger

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	kb, err := knowledge.NewKeywordBase(cfg.App.KnowledgeBaseFile)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	facts, err := verifier.LoadFacts(cfg.App.FactsFile)
	if err != nil {
		return nil, fmt.Errorf("load verified facts: %w", err)
	}
	if cfg.Assistant.MaxTeamSize > 0 {
		facts.TeamSizeCeiling = cfg.Assistant.MaxTeamSize
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	tracker := analytics.NewTracker(pubSub, analytics.Topic, sysLogger)

	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	c.ConsumerService = service.NewConsumerService(pubSub, analytics.Topic, forwarder, sysLogger)

	// 3. Protection
	errorTracker := breaker.NewTracker(
		breaker.WithErrorThreshold(cfg.Guard.BreakerErrorThreshold),
		breaker.WithTimeoutThreshold(cfg.Guard.BreakerTimeoutThreshold),
		breaker.WithCooldown(cfg.Guard.BreakerCooldown),
	)
	limiter := guard.NewRateLimiter(c.windowStore(cfg), cfg.Guard.RateLimitPerMinute, time.Minute)
	quota := guard.NewQuota(cfg.Guard.DailySearchQuota)

	// 4. Web Search
	provider := websearch.NewGoogleProvider(
		cfg.Search.APIKey,
		cfg.Search.EngineID,
		cfg.Search.BaseURL,
		cfg.Search.EndpointTimeout,
	)
	searcher := websearch.NewSearcher(provider, quota, websearch.Config{
		ResultCount: cfg.Search.ResultCount,
		DirectScore: cfg.Search.DirectScore,
		CacheSize:   cfg.Search.CacheSize,
		CacheTTL:    cfg.Search.CacheTTL,
		// Shared calls get the same bound as a single provider request.
		FetchTimeout: cfg.Search.EndpointTimeout,
	})

	// 5. Services
	assistantService := service.NewAssistantService(service.AssistantDependencies{
		Config:      cfg.Assistant,
		Guard:       cfg.Guard,
		SearchLimit: cfg.Search.EndpointTimeout,
		Knowledge:   kb,
		Enhancer:    enhancer.New(),
		Searcher:    searcher,
		Verifier: verifier.New(facts, verifier.Thresholds{
			LowConfidence:     cfg.Assistant.LowConfidenceThreshold,
			Identity:          cfg.Assistant.IdentityConfidence,
			ContactFloor:      cfg.Assistant.ContactConfidenceFloor,
			Critical:          cfg.Assistant.CriticalConfidence,
			Risk:              cfg.Assistant.RiskConfidence,
			Relevance:         cfg.Assistant.RelevanceThreshold,
			RelevanceCap:      cfg.Assistant.RelevanceCap,
			RelevanceMinWords: cfg.Assistant.RelevanceMinWords,
		}),
		Sanitizer: sanitize.New(cfg.Assistant.MaxMessageLength, cfg.Search.MaxQueryLength),
		Breaker:   errorTracker,
		Limiter:   limiter,
		Quota:     quota,
		Sessions:  memory.NewSessionRepository(cfg.Assistant.ContextWindow),
		Events:    tracker,
		Logger:    sysLogger,
	})

	// 6. Scheduled Tasks
	c.Scheduler = scheduler.New()
	c.Scheduler.Every("breaker-sweep", cfg.Guard.BreakerSweepInterval, func(ctx context.Context) {
		errorTracker.Reset()
		sysLogger.Info(constant.GuardModule, "Scheduled breaker sweep", nil)
	})

	// 7. Controllers
	c.AssistantController = controller.NewAssistantController(assistantService)
	c.AdminController = controller.NewAdminController(assistantService, cfg.Auth.JwtSecret)

	if cfg.Search.APIKey == "" || cfg.Search.EngineID == "" {
		sysLogger.Warn(constant.WebSearchModule, "Search credentials missing, web search will report quota exhaustion", nil)
	}

	return c, nil
}

// windowStore picks the rate-limit backend. An unreachable Redis falls back
// to the in-memory store.
func (c *Container) windowStore(cfg *config.Config) guard.WindowStore {
	if cfg.Guard.RateLimitBackend != "redis" {
		return guard.NewMemoryStore(time.Minute)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Using in-memory rate limits", err)
		_ = rdb.Close()
		return guard.NewMemoryStore(time.Minute)
	}

	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return guard.NewRedisStore(rdb, "assistant:ratelimit:")
}

// Close stops background work and releases connections in reverse order.
func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
