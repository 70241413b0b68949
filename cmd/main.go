package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"genai-rag-backend/internal/ai"
	"genai-rag-backend/internal/config"
	"genai-rag-backend/internal/logger"
	"genai-rag-backend/internal/prompts"
	"genai-rag-backend/internal/telemetry"
	"genai-rag-backend/middleware"
	"genai-rag-backend/routes"
	"genai-rag-backend/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing is observability only; a missing collector never blocks
	// startup.
	shutdownTracer, err := telemetry.InitTracer("genai-rag-backend", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	ctx := context.Background()

	// The model clients are the hard startup requirement: no pipeline
	// without working embedding and generation capabilities.
	embedder, err := ai.NewGeminiEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	generator, err := ai.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize generation client:", err)
	}
	defer generator.Close()

	// The stores degrade to inert when unreachable: operations warn and
	// no-op instead of crashing the process.
	neo4jDriver, err := config.ConnectNeo4j(cfg)
	if err != nil {
		logger.Error("Neo4j connection failed, graph store is inert", "error", err)
		neo4jDriver = nil
	}
	graphStore := services.NewNeo4jStorage(neo4jDriver, cfg.VectorIndexName, cfg.VectorDimensions)
	defer graphStore.Close(ctx)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Error("MongoDB connection failed, metadata store is inert", "error", err)
		mongoClient = nil
	}
	metadataStore := services.NewMongoMetadata(mongoClient, cfg.MongoDB, cfg.MongoCollection)
	defer metadataStore.Close(ctx)

	// Retrieval strategy is fixed here, once: vector index when the
	// graph connection is live, otherwise the client-side scan.
	var retriever services.Retriever
	if indexRetriever, err := services.NewIndexRetriever(ctx, neo4jDriver, embedder, cfg.VectorIndexName); err == nil {
		retriever = indexRetriever
	} else {
		logger.Warn("Vector index retriever unavailable", "error", err)
		retriever = services.NewScanRetriever(graphStore, embedder)
	}

	var answerCache services.AnswerCache
	if redisClient, err := config.NewRedisClient(cfg); err == nil {
		answerCache = services.NewRedisAnswerCache(redisClient, cfg.AnswerCacheTTL)
		defer redisClient.Close()
	} else {
		logger.Warn("Redis unavailable, answer caching disabled", "error", err)
	}

	chunker := services.NewDocumentChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	promptClient := prompts.NewClient(cfg)

	ingestion := services.NewIngestionService(cfg, chunker, embedder, graphStore, metadataStore)
	queryPipeline := services.NewRAGPipeline(retriever, generator, promptClient, answerCache, cfg.QueryTopK)
	highlightClient := services.NewHighlightClient(cfg)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Tracing("genai-rag-backend"))
	router.Use(middleware.EnrichTrace())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	routes.SetupUploadRoutes(router, ingestion)
	routes.SetupQueryRoutes(router, queryPipeline)
	routes.SetupHighlightRoutes(router, highlightClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
