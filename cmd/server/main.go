package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rag-engine/internal/api"
	"rag-engine/internal/assistant"
	"rag-engine/internal/config"
	"rag-engine/internal/db"
	"rag-engine/internal/embedding"
	"rag-engine/internal/extractor"
	"rag-engine/internal/index"
	"rag-engine/internal/provider"
	"rag-engine/internal/store"
	"rag-engine/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting RAG document assistant...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Tracing first, so every later operation is covered.
	jaegerShutdown, err := telemetry.InitJaeger("rag-engine", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Provider selection happens once, at startup. No credentials is a
	// configuration error, not something to limp past.
	creds := provider.CredentialsFromEnv()
	providerCfg, err := provider.Select(creds)
	if err != nil {
		if errors.Is(err, provider.ErrNoCredentials) {
			log.Fatalf("❌ %v", err)
		}
		log.Fatalf("❌ Failed to select provider: %v", err)
	}
	generator, err := provider.New(providerCfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize provider: %v", err)
	}
	log.Printf("✓ Generation provider: %s (%s)", generator.Name(), generator.Model())

	// An OpenAI key gets real embeddings; without one, a deterministic
	// local hashing embedder keeps the pipeline functional.
	var embedder embedding.Embedder
	if creds.OpenAIKey != "" {
		embedder = embedding.NewOpenAIEmbedder(creds.OpenAIKey, "", "")
	} else {
		embedder = embedding.NewHashingEmbedder()
	}
	log.Printf("✓ Embedder: %s (dim %d)", embedder.Name(), embedder.Dimension())

	vectorIndex := index.New(database.DB, embedder, cfg.ChunkSize, cfg.ChunkOverlap)
	sessions := store.NewSessionStore(database.DB)
	extract := extractor.New(cfg.MaxPDFPages)

	qa := assistant.New(extract, vectorIndex, sessions, generator, cfg.NResults, cfg.ResetHistoryOnUpload)

	handler := api.NewHandler(qa, sessions, cfg.MaxUploadMB)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // generation can take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 API Endpoints:")
		log.Printf("   POST   /api/upload        - Upload and index a document")
		log.Printf("   POST   /api/chat          - Ask a question")
		log.Printf("   GET    /api/sessions/:id  - Inspect a session")
		log.Printf("   GET    /api/health        - Readiness check")
		log.Printf("   GET    /ws/chat           - WebSocket chat")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server shutdown complete")
}
