package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"worldatlas/db"
	"worldatlas/internal/advisor"
	"worldatlas/internal/aggregation"
	"worldatlas/internal/ai"
	"worldatlas/internal/cache"
	"worldatlas/internal/config"
	"worldatlas/internal/country"
	"worldatlas/internal/countrysync"
	"worldatlas/internal/favorite"
	"worldatlas/internal/gdpprediction"
	"worldatlas/internal/logging"
	"worldatlas/internal/recommendation"
	"worldatlas/internal/smartsearch"
	"worldatlas/internal/systemstatus"
	"worldatlas/internal/travelstatus"
	"worldatlas/internal/web"
	"worldatlas/middleware"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting worldatlas backend",
		zap.Int("pid", os.Getpid()),
		zap.String("runtime", runtime.GOOS+"/"+runtime.GOARCH),
		zap.String("go", runtime.Version()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repoFactory, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}

	// Create repositories
	countryRepo := repoFactory.NewCountryRepository()
	regionRepo := repoFactory.NewRegionRepository()
	travelStatusRepo := repoFactory.NewTravelStatusRepository()
	favoriteRepo := repoFactory.NewFavoriteRepository()

	var redisClient redis.UniversalClient
	if cfg.CacheBackend == config.CacheRedis {
		redisClient = cache.NewRedisClient(strings.Split(cfg.RedisAddr, ","), cfg.RedisPassword)
		logger.Info("Using Redis cache store", zap.String("addr", cfg.RedisAddr))
	}

	newCache := func(name string, maxEntries int) *cache.Cache {
		store, err := newCacheStore(cfg, repoFactory, redisClient, name)
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.String("cache", name), zap.Error(err))
		}
		return cache.New(ctx, cache.Options{
			Name:       name,
			TTL:        cfg.CacheTTL,
			MaxEntries: maxEntries,
			Store:      store,
			Logger:     logger,
		})
	}
	gdpCache := newCache("gdp_prediction", 0)
	searchCache := newCache("smart_search", cfg.SmartSearchCacheMax)
	advisorCaches := advisor.Caches{
		Travel:  newCache("travel_advisor", 0),
		Chat:    newCache("chat", 0),
		Compare: newCache("compare", 0),
	}

	var generator ai.Generator = ai.Unconfigured{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		generator = gemini
		logger.Info("AI features enabled", zap.String("model", cfg.GeminiModel))
	} else {
		logger.Warn("GEMINI_API_KEY is not set, AI endpoints will answer 502")
	}
	aiClient := ai.NewClient(generator)

	// Initialize services with repositories
	countryService := country.NewCountryService(countryRepo, logger)
	aggregationService := aggregation.NewAggregationService(countryRepo, regionRepo, logger)
	recommendationService := recommendation.NewRecommendationService(travelStatusRepo, countryRepo, logger)
	gdpService := gdpprediction.NewGDPPredictionService(countryRepo, aiClient, gdpCache, logger)
	searchService := smartsearch.NewSmartSearchService(countryRepo, aiClient, searchCache, logger)
	advisorService := advisor.NewAdvisorService(countryRepo, aiClient, advisorCaches, logger)
	travelStatusService := travelstatus.NewTravelStatusService(travelStatusRepo, countryRepo, logger)
	favoriteService := favorite.NewFavoriteService(favoriteRepo, countryRepo, logger)
	syncService := countrysync.NewCountrySyncService(countryRepo, aggregationService, countrysync.Options{
		RestCountriesURL: cfg.RestCountriesURL,
		WorldBankURL:     cfg.WorldBankURL,
		PopulationYear:   cfg.PopulationYear,
	}, logger)
	statusService := systemstatus.NewSystemStatusService(repoFactory, countryRepo,
		[]*cache.Cache{gdpCache, searchCache, advisorCaches.Travel, advisorCaches.Chat, advisorCaches.Compare},
		cfg.GeminiAPIKey != "", logger)

	handlers := web.Handlers{
		Countries:       country.NewCountryHandlers(countryService, logger),
		Aggregation:     aggregation.NewAggregationHandlers(aggregationService, logger),
		Recommendations: recommendation.NewRecommendationHandlers(recommendationService, logger),
		GDPPrediction:   gdpprediction.NewGDPPredictionHandlers(gdpService, logger),
		SmartSearch:     smartsearch.NewSmartSearchHandlers(searchService, logger),
		Advisor:         advisor.NewAdvisorHandlers(advisorService, logger),
		TravelStatus:    travelstatus.NewTravelStatusHandlers(travelStatusService, logger),
		Favorites:       favorite.NewFavoriteHandlers(favoriteService, logger),
		CountrySync:     countrysync.NewCountrySyncHandlers(syncService, logger),
		SystemStatus:    systemstatus.NewSystemStatusHandlers(statusService, logger),
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           web.NewHandler(handlers, middleware.NewMiddleware(cfg, logger), cfg.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.SyncOnStartup {
		go runInitialSync(ctx, syncService, logger)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server is starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server ListenAndServe error", zap.Error(err))
		}
	}

	shutdown(server, repoFactory, redisClient, logger)
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.RepositoryFactory, error) {
	var sqliteDB *sql.DB
	var mongoClient *mongo.Client

	switch cfg.DatabaseType {
	case config.SQLite:
		logger.Info("Using SQLite database", zap.String("path", cfg.SQLitePath))
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		var err error
		if sqliteDB, err = db.ConnectToSQLite(cfg.SQLitePath); err != nil {
			return nil, err
		}
		if err := db.InitializeSchema(sqliteDB); err != nil {
			sqliteDB.Close()
			return nil, err
		}
	default:
		logger.Info("Using MongoDB database", zap.String("database", cfg.DatabaseName))
		var err error
		if mongoClient, err = db.ConnectToMongo(ctx, cfg.MongoURI); err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx, mongoClient, cfg.DatabaseName); err != nil {
			_ = mongoClient.Disconnect(context.Background())
			return nil, err
		}
	}

	return db.NewRepositoryFactory(sqliteDB, mongoClient, cfg.DatabaseName), nil
}

func newCacheStore(cfg *config.Config, factory *db.RepositoryFactory, redisClient redis.UniversalClient, name string) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheSQLite:
		store, err := factory.NewCacheRepository(name)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheRedis:
		return cache.NewRedisStore(redisClient, "worldatlas", name), nil
	default:
		return cache.NewFileStore(cfg.CacheDir, name), nil
	}
}

func runInitialSync(ctx context.Context, service *countrysync.CountrySyncService, logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Initial country sync panic recovered",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	start := time.Now()
	report, err := service.Sync(ctx)
	if err != nil {
		logger.Error("Initial country sync failed", zap.Error(err))
		return
	}
	logger.Info("Initial country sync completed",
		zap.Int("imported", report.Imported),
		zap.Int("regions", report.Regions),
		zap.Duration("took", time.Since(start)))
}

func shutdown(server *http.Server, factory *db.RepositoryFactory, redisClient redis.UniversalClient, logger *zap.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Shutting down the server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server Shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if err := factory.Close(shutdownCtx); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
	logger.Info("Services stopped")
}
