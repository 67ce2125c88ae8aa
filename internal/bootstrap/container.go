package bootstrap

import (
	"context"
	"fmt"

	"ai-postgen-be/internal/config"
	"ai-postgen-be/internal/controller"
	"ai-postgen-be/internal/handler"
	"ai-postgen-be/internal/metrics"
	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/pkg/serverutils"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/internal/repository/implementation"
	"ai-postgen-be/internal/repository/memory"
	"ai-postgen-be/internal/repository/redisstore"
	"ai-postgen-be/internal/service"
	"ai-postgen-be/internal/websocket"
	"ai-postgen-be/pkg/embedding"
	"ai-postgen-be/pkg/embedding/jina"
	"ai-postgen-be/pkg/llm"
	"ai-postgen-be/pkg/llm/factory"
	pktNats "ai-postgen-be/pkg/nats"
	"ai-postgen-be/pkg/postgen/passes"
	"ai-postgen-be/pkg/postgen/pipeline"
	"ai-postgen-be/pkg/postgen/prompt"
	"ai-postgen-be/pkg/postgen/singlepass"
	"ai-postgen-be/pkg/research"
	"ai-postgen-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const module = "Container"

type Container struct {
	// Controllers
	GenerationController controller.IGenerationController
	SimilarityController controller.ISimilarityController
	SessionController    controller.ISessionController
	SessionWatchHandler  *handler.SessionWatchHandler

	// Services, exposed for the CLI and main.go
	GenerationService   service.IGenerationService
	SimilarityService   service.ISimilarityService
	ConsumerService     service.IConsumerService
	ContentEventService *service.ContentEventService

	WebSocketHub *websocket.Hub
	Auth         fiber.Handler
	Registry     *prometheus.Registry
	Logger       logger.ILogger

	closers []func()
}

// NewContainer wires every component. db may be nil, in which case the
// vector store and product catalog live in memory.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	c.Logger = sysLogger

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(c.Registry)

	// 2. Infrastructure
	rdb := connectRedis(ctx, cfg.App.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var sessions contract.SessionRepository
	switch cfg.Generation.CacheBackend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session cache backend is redis but %s is unreachable", cfg.App.RedisURL)
		}
		sessions = redisstore.NewSessionRepository(rdb, cfg.Generation.SessionTTL, nil)
	case "memory", "":
		sessions = memory.NewSessionRepository(cfg.Generation.SessionTTL)
	default:
		return nil, fmt.Errorf("unsupported session cache backend: %s", cfg.Generation.CacheBackend)
	}

	var (
		vectors  contract.VectorStore
		products contract.ProductRepository
	)
	if db != nil {
		vectors = implementation.NewContentEmbeddingRepository(db)
		products = implementation.NewProductRepository(db)
	} else {
		sysLogger.Warn(module, "No database configured, using in-memory vector store and catalog", nil)
		vectors = memory.NewVectorStore()
		products = memory.NewProductRepository()
	}

	var (
		productCache contract.Cache[store.Product]
		vectorCache  embedding.VectorCache
	)
	if rdb != nil {
		productCache = redisstore.NewCache[store.Product](rdb, "product", cfg.Generation.ProductCacheTTL)
		vectorCache = redisstore.NewCache[[]float32](rdb, "embedding", cfg.Ai.EmbeddingCacheTTL)
	} else {
		productCache = memory.NewCache[store.Product](cfg.Generation.ProductCacheTTL)
		vectorCache = memory.NewCache[[]float32](cfg.Ai.EmbeddingCacheTTL)
	}

	// 3. AI providers
	embedder, err := newEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	embedder = embedding.NewCachedProvider(
		embedding.NewRetryingProvider(embedder, embedding.RetryConfig{}),
		vectorCache,
		cfg.Ai.EmbeddingCacheTTL,
	)
	sysLogger.Info(module, "Embedding provider ready", map[string]interface{}{"provider": cfg.Ai.EmbeddingProvider})

	llmProvider, err := factory.NewLLMProvider(ctx, llmConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	sysLogger.Info(module, "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	researcher, err := newResearchProvider(cfg.Generation.ResearchProvider, llmProvider)
	if err != nil {
		return nil, err
	}

	// 4. Event bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	var (
		eventPub service.EventPublisher
		eventSub service.EventSubscriber
	)
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger); err != nil {
		sysLogger.Warn(module, "NATS publisher unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		eventPub = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger); err != nil {
		sysLogger.Warn(module, "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		eventSub = natsSub
		c.closers = append(c.closers, natsSub.Close)
	}

	// 5. Services
	c.SimilarityService = service.NewSimilarityService(embedder, vectors, service.SimilarityConfig{
		Threshold:       cfg.Generation.SimilarityThreshold,
		Limit:           cfg.Generation.SimilarityLimit,
		PrefilterFactor: cfg.Generation.PrefilterFactor,
	}, m, sysLogger)

	productService := service.NewProductService(products, productCache, cfg.Generation.ProductCacheTTL, m, sysLogger)
	publisherService := service.NewPublisherService(cfg.App.EmbedTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EmbedTopic, c.SimilarityService, m, sysLogger)
	c.ContentEventService = service.NewContentEventService(publisherService, eventPub, eventSub, c.SimilarityService, auditLogger, sysLogger)

	prompts := prompt.NewBuilder(prompt.Brand{
		Name:            cfg.Brand.Name,
		Voice:           cfg.Brand.Voice,
		Language:        cfg.Brand.Language,
		Hotline:         cfg.Brand.Hotline,
		Website:         cfg.Brand.Website,
		DefaultHashtags: cfg.Brand.DefaultHashtags,
	})

	enabled, err := passes.ParseNames(cfg.Generation.OptionalPasses)
	if err != nil {
		return nil, err
	}
	passList, err := passes.Build(passes.Deps{
		LLM:          llmProvider,
		Prompts:      prompts,
		Research:     researcher,
		Embedder:     embedder,
		Vectors:      vectors,
		RAGLimit:     cfg.Generation.RAGLimit,
		RAGThreshold: cfg.Generation.RAGThreshold,
	}, enabled)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(sessions, passList,
		pipeline.WithLogger(sysLogger),
		pipeline.WithObserver(m),
		pipeline.WithProductLookup(productService),
		pipeline.WithCompletionHook(c.ContentEventService),
		pipeline.WithPassTimeout(cfg.Generation.PassTimeout),
	)
	if err != nil {
		return nil, err
	}
	sysLogger.Info(module, "Pipeline ready", map[string]interface{}{"passes": p.Passes()})

	singlePass, err := singlepass.NewGenerator(llmProvider, prompts, productService, sysLogger)
	if err != nil {
		return nil, err
	}
	c.GenerationService = service.NewGenerationService(singlePass, p, sessions)

	// 6. Websocket & Controllers
	c.WebSocketHub = websocket.NewHub(rdb, logger.NewIsolatedLogger("logs/websocket.log"))

	c.Auth = newAuth(cfg.Keys.JwtSecret, sysLogger)
	c.GenerationController = controller.NewGenerationController(c.GenerationService, c.WebSocketHub, sysLogger)
	c.SimilarityController = controller.NewSimilarityController(c.SimilarityService)
	c.SessionController = controller.NewSessionController(c.GenerationService)
	c.SessionWatchHandler = handler.NewSessionWatchHandler(sessions, c.WebSocketHub, sysLogger)

	return c, nil
}

// Start launches the background workers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.WebSocketHub.Run(ctx)

	c.ContentEventService.Start()

	go func() {
		c.Logger.Info(module, "Starting consumer service", nil)
		if err := c.ConsumerService.Consume(ctx); err != nil {
			c.Logger.Error(module, "Consumer stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func connectRedis(ctx context.Context, url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn(module, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn(module, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		rdb.Close()
		return nil
	}
	return rdb
}

func newEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel), nil
	case "jina":
		return jina.NewJinaProvider(cfg.Keys.Jina, ""), nil
	case "gemini":
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini), nil
	case "hash":
		return embedding.NewHashProvider(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}
}

func llmConfig(cfg *config.Config) factory.Config {
	fc := factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		Timeout:  cfg.Ai.LLMTimeout,
	}
	switch cfg.Ai.LLMProvider {
	case "ollama":
		if fc.BaseURL == "" {
			fc.BaseURL = cfg.Ai.OllamaBaseURL
		}
	case "gemini":
		fc.APIKey = cfg.Keys.GoogleGemini
	default:
		fc.APIKey = cfg.Keys.HuggingFace
	}
	return fc
}

func newResearchProvider(name string, provider llm.LLMProvider) (research.Provider, error) {
	switch name {
	case "llm":
		return research.NewLLMProvider(provider), nil
	case "web":
		return research.NewWebProvider("", 5), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported research provider: %s", name)
	}
}

// newAuth returns the JWT middleware, or a pass-through when no secret is
// configured.
func newAuth(secret string, log logger.ILogger) fiber.Handler {
	if secret == "" {
		log.Warn(module, "JWT_SECRET is empty, API authentication is disabled", nil)
		return func(ctx *fiber.Ctx) error { return ctx.Next() }
	}
	return serverutils.NewJwtMiddleware(secret)
}
