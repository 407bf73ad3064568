package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/pocket-ledger/internal/api/handlers"
	"github.com/dvloznov/pocket-ledger/internal/api/middleware"
	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/ingest"
	"github.com/dvloznov/pocket-ledger/internal/logger"
	"github.com/dvloznov/pocket-ledger/internal/session"
	"github.com/dvloznov/pocket-ledger/internal/store"
)

func main() {
	// Parse command-line flags
	var (
		port    = flag.String("port", "8080", "HTTP server port")
		bucket  = flag.String("bucket", os.Getenv("LEDGER_BUCKET"), "GCS bucket holding transaction records (or set LEDGER_BUCKET env)")
		project = flag.String("project", os.Getenv("LEDGER_PROJECT"), "GCP project holding the reference-data dataset (or set LEDGER_PROJECT env)")
		model   = flag.String("model", os.Getenv("LEDGER_MODEL"), "Gemini model name for AI parsing (or set LEDGER_MODEL env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Reference catalog: loaded once at startup. The settings workflow
	// owns edits; a restart picks them up.
	catalogRepo, err := catalog.NewBigQueryRepository(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog repository")
	}
	defer catalogRepo.Close()

	cat, err := catalog.Load(ctx, catalogRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load reference catalog")
	}
	log.Info().
		Int("categories", len(cat.Categories)).
		Int("payment_methods", len(cat.PaymentMethods)).
		Msg("Reference catalog loaded")

	// Transaction store
	txStore, err := store.NewGCSStore(ctx, *bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction store")
	}
	defer txStore.Close()

	// Generative model for the AI parsers
	gemini, err := ingest.NewGeminiModel(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generative model client")
	}

	pipeline := ingest.New(cat, gemini, txStore, log)
	sessions := session.NewStore()

	// Initialize handlers
	ingestHandler := handlers.NewIngestHandler(pipeline, sessions, log)
	transactionsHandler := handlers.NewTransactionsHandler(txStore, log)
	catalogHandler := handlers.NewCatalogHandler(pipeline, log)

	// Create router
	mux := http.NewServeMux()

	// Session endpoints
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.CreateSession(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		parts := strings.Split(rest, "/")
		sessionID := parts[0]
		if sessionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Session ID is required")
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			ingestHandler.GetSession(w, r, sessionID)
		case len(parts) == 3 && parts[1] == "parse" && r.Method == http.MethodPost:
			switch parts[2] {
			case "bulk":
				ingestHandler.ParseBulk(w, r, sessionID)
			case "text":
				ingestHandler.ParseText(w, r, sessionID)
			case "receipt":
				ingestHandler.ParseReceipt(w, r, sessionID)
			default:
				middleware.WriteError(w, http.StatusNotFound, "Unknown parse mode")
			}
		case len(parts) == 2 && parts[1] == "candidates" && r.Method == http.MethodPost:
			ingestHandler.AddCandidate(w, r, sessionID)
		case len(parts) == 3 && parts[1] == "candidates" && r.Method == http.MethodPatch:
			ingestHandler.EditCandidate(w, r, sessionID, parts[2])
		case len(parts) == 2 && parts[1] == "submit" && r.Method == http.MethodPost:
			ingestHandler.Submit(w, r, sessionID)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.DeleteTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
			if id == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
				return
			}
			transactionsHandler.DeleteTransaction(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Reference data endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			catalogHandler.ListCategories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/payment-methods", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			catalogHandler.ListPaymentMethods(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls are slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
