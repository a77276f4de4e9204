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

	"github.com/muyan2020/matchparty/internal/adapter/llm"
	"github.com/muyan2020/matchparty/internal/config"
	"github.com/muyan2020/matchparty/internal/engine"
	"github.com/muyan2020/matchparty/internal/lobby"
	"github.com/muyan2020/matchparty/internal/policy"
	"github.com/muyan2020/matchparty/internal/pubsub"
	store "github.com/muyan2020/matchparty/internal/repository"
	"github.com/muyan2020/matchparty/internal/service"
	transport "github.com/muyan2020/matchparty/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting matchparty...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Generation model: %s", cfg.Model)

	// Initialize archive store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize generation client
	llmClient := llm.NewChatClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.Model, cfg.LLMTimeout)

	// Initialize content policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize event broker and conversation engine
	broker := pubsub.NewBroker()
	eng := engine.New(llmClient, broker, policyEngine, cfg.MessagePacing)

	// Initialize service
	svc := service.New(eng, broker, db, lobby.New(), cfg)

	// Create HTTP server
	server := transport.NewServer(svc, cfg)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down matchparty...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Matchparty stopped")
}
