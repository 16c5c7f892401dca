package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yxzhu16/helpdesk/internal/config"
	"github.com/yxzhu16/helpdesk/internal/llm"
	"github.com/yxzhu16/helpdesk/internal/policy"
	"github.com/yxzhu16/helpdesk/internal/prompts"
	"github.com/yxzhu16/helpdesk/internal/retrieval"
	"github.com/yxzhu16/helpdesk/internal/service"
	"github.com/yxzhu16/helpdesk/internal/store"
	"github.com/yxzhu16/helpdesk/internal/tools"
	handler "github.com/yxzhu16/helpdesk/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting helpdesk orchestrator...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM URL: %s", cfg.LLMBaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize completion gateway (real or mock, per HELPDESK_MODE)
	gateway := llm.NewGateway(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Load prompts
	promptSet, err := prompts.Load(cfg.PromptFile)
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize retrieval engine and ticket capabilities
	engine := retrieval.NewEngine(db, gateway, cfg.EmbeddingModel, cfg.EmbedDim)
	registry := tools.NewTicketRegistry(db)

	// Initialize service
	svc := service.New(cfg, db, gateway, promptSet, engine, registry, policyEngine)

	// Embed pending FAQ rows before serving, if configured
	if cfg.EmbedCorpusOnStart {
		embedded, pending, err := svc.EmbedPendingFAQs(ctx)
		if err != nil {
			log.Printf("WARN: corpus embedding failed: %v", err)
		} else {
			log.Printf("Corpus embedding done: %d embedded, %d pending", embedded, pending)
		}
	}

	// Create HTTP server
	e := handler.NewServer(svc)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down helpdesk orchestrator...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Helpdesk orchestrator stopped")
}
