package bootstrap

import (
	"context"
	"fmt"
	"time"

	"wine-concierge-be/internal/config"
	"wine-concierge-be/internal/controller"
	"wine-concierge-be/internal/model"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/internal/repository/contract"
	"wine-concierge-be/internal/repository/implementation"
	"wine-concierge-be/internal/repository/memory"
	"wine-concierge-be/internal/service"
	"wine-concierge-be/pkg/ai/pipeline"
	"wine-concierge-be/pkg/ai/router"
	"wine-concierge-be/pkg/database"
	"wine-concierge-be/pkg/document"
	"wine-concierge-be/pkg/embedding"
	"wine-concierge-be/pkg/events"
	"wine-concierge-be/pkg/llm"
	"wine-concierge-be/pkg/llm/factory"
	"wine-concierge-be/pkg/metrics"
	"wine-concierge-be/pkg/rag/answer"
	"wine-concierge-be/pkg/rag/indexer"
	"wine-concierge-be/pkg/rag/retriever"
	"wine-concierge-be/pkg/tools/weather"
	"wine-concierge-be/pkg/tools/websearch"
	"wine-concierge-be/pkg/vectorindex"
	"wine-concierge-be/pkg/watcher"

	pktNats "wine-concierge-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ConciergeController controller.IConciergeController
	DocumentController  controller.IDocumentController

	// Services used by main and the CLI
	ConciergeService service.IConciergeService
	DocumentService  service.IDocumentService
	IndexService     service.IIndexService
	ConsumerService  service.IConsumerService

	// Watcher is nil unless DOCS_WATCH_ENABLED is set.
	Watcher *watcher.Watcher

	Logger  logger.ILogger
	Metrics *metrics.Metrics

	closers []func() error
}

func NewContainer(cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger, Metrics: metrics.New()}
	instanceID := uuid.NewString()

	// 1. Model providers
	embedder, err := embedding.NewProvider(embedding.FactoryConfig{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         cfg.Ai.EmbeddingModel,
		BaseURL:       cfg.Ai.EmbeddingBaseURL,
		APIKey:        cfg.Ai.EmbeddingAPIKey,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		Dimensions:    cfg.Ai.EmbeddingDimensions,
		Timeout:       cfg.Ai.EmbeddingTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		BaseURL:       cfg.Ai.LLMBaseURL,
		APIKey:        cfg.Ai.LLMAPIKey,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		Timeout:       cfg.Ai.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "providers ready", map[string]interface{}{
		"embedder": embedder.Fingerprint(),
		"llm":      cfg.Ai.LLMProvider + ":" + cfg.Ai.LLMModel,
	})

	// 2. Document index
	handle := vectorindex.NewHandle()
	manager := indexer.NewManager(
		indexer.Config{
			IndexPath:    cfg.Storage.IndexPath,
			ChunkSize:    cfg.Storage.ChunkSize,
			ChunkOverlap: cfg.Storage.ChunkOverlap,
			Concurrency:  cfg.Storage.EmbedConcurrency,
		},
		document.NewLoader(cfg.Storage.DocsPath),
		embedder,
		handle,
		sysLogger,
		c.Metrics,
	)

	// 3. Tools
	weatherTool := weather.New(weather.Config{
		APIKey:          cfg.Tools.OpenWeatherAPIKey,
		BaseURL:         cfg.Tools.WeatherBaseURL,
		Timeout:         cfg.Tools.WeatherTimeout,
		CacheTTL:        cfg.Tools.WeatherCacheTTL,
		DefaultLocation: cfg.Tools.DefaultLocation,
	})

	var searchCache websearch.Cache
	if cfg.App.RedisURL != "" {
		rdb, err := connectRedis(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "redis unavailable, web search cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			searchCache = websearch.NewRedisCache(rdb, cfg.Tools.SearchCacheTTL)
			c.closers = append(c.closers, rdb.Close)
		}
	}
	searchTool := websearch.New(
		websearch.NewDuckDuckGo(cfg.Tools.SearchBaseURL, cfg.Tools.SearchTimeout, cfg.Tools.SearchRatePerSec),
		searchCache,
		cfg.Tools.SearchMaxResults,
		c.Metrics,
	)

	// 4. Concierge graph
	intentRouter, err := router.LoadRules(cfg.Tools.RouterRulesPath)
	if err != nil {
		return nil, err
	}
	concierge, err := pipeline.NewConcierge(pipeline.Deps{
		Router:          intentRouter,
		Retriever:       retriever.New(handle, embedder, cfg.Storage.RetrievalK),
		Answerer:        answer.New(llmProvider, llm.WithTemperature(cfg.Ai.LLMTemperature)),
		WebSearch:       searchTool,
		Weather:         weatherTool,
		DefaultLocation: cfg.Tools.DefaultLocation,
		Logger:          sysLogger,
		Metrics:         c.Metrics,
	})
	if err != nil {
		return nil, err
	}

	// 5. Catalog
	docRepo, buildRepo, err := c.catalog(cfg)
	if err != nil {
		return nil, err
	}

	// 6. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 16},
		watermillLogger,
	)
	c.closers = append(c.closers, pubSub.Close)

	var bus *pktNats.Bus
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		bus, err = pktNats.Connect(cfg.App.NatsURL, "wine-concierge-"+instanceID[:8], sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS unavailable, peers will not reload automatically", map[string]interface{}{"error": err.Error()})
			bus = nil
		} else {
			eventPublisher = bus
			c.closers = append(c.closers, func() error { bus.Close(); return nil })
		}
	}

	// 7. Services
	c.IndexService = service.NewIndexService(manager, buildRepo, eventPublisher, instanceID, embedder.Fingerprint(), sysLogger)
	publisherService := service.NewPublisherService(cfg.App.RebuildTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.RebuildTopic, c.IndexService, sysLogger)
	c.DocumentService = service.NewDocumentService(
		cfg.Storage.DocsPath,
		int64(cfg.App.UploadMaxBytes),
		docRepo,
		c.IndexService,
		publisherService,
		sysLogger,
	)
	c.ConciergeService = service.NewConciergeService(concierge, weatherTool, cfg.Tools.DefaultLocation, sysLogger)

	if bus != nil {
		if _, err := bus.Subscribe(events.TypeIndexRebuilt, c.IndexService.HandleIndexRebuilt); err != nil {
			sysLogger.Warn("BOOTSTRAP", "failed to subscribe to index events", map[string]interface{}{"error": err.Error()})
		}
	}

	if cfg.Storage.WatchDocs {
		c.Watcher = watcher.New(cfg.Storage.DocsPath, 2*time.Second, document.IsSupported, publisherService.PublishRebuild, sysLogger)
	}

	// 8. Controllers
	c.ConciergeController = controller.NewConciergeController(c.ConciergeService)
	c.DocumentController = controller.NewDocumentController(c.DocumentService, c.IndexService)

	return c, nil
}

func (c *Container) catalog(cfg *config.Config) (contract.DocumentRepository, contract.IndexBuildRepository, error) {
	if cfg.Database.Connection == "" {
		c.Logger.Info("BOOTSTRAP", "no database configured, catalog kept in memory", nil)
		return memory.NewDocumentRepository(), memory.NewIndexBuildRepository(100), nil
	}

	db, err := database.Open(cfg.Database.Connection, database.Options{Verbose: !cfg.IsProduction()}, model.All()...)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		c.closers = append(c.closers, sqlDB.Close)
	}
	return implementation.NewDocumentRepository(db), implementation.NewIndexBuildRepository(db), nil
}

func connectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("BOOTSTRAP", "close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
