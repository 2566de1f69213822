package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/shiget/resheet/internal/extraction"
	"github.com/shiget/resheet/internal/quota"
	"github.com/shiget/resheet/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("resheetd")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "resheet.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./extractions", "Artifact directory path")
		backendType  = fs.StringLong("backend", "gemini", "Generation backend: 'gemini' or 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", extraction.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", extraction.DefaultOllamaModel, "Ollama model name")
		noStructured = fs.BoolLong("no-structured-output", "Do not ask the backend for JSON-constrained output")
		dailyLimit   = fs.IntLong("daily-limit", 100, "Daily extraction call budget (0 disables)")
		quotaPath    = fs.StringLong("quota-file", "resheet_quota.json", "Daily usage counter file path")
		layoutName   = fs.StringLong("layout", "offset", "TSV detail-row layout: 'offset' or 'flat'")
		noSave       = fs.BoolLong("no-save", "Do not persist OCR input, TSV results or history records")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RESHEET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	layout, err := receipt.ParseLayout(*layoutName)
	if err != nil {
		slog.Error("Invalid layout", "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize quota tracker
	tracker, err := quota.NewTracker(*quotaPath, *dailyLimit)
	if err != nil {
		slog.Error("Failed to initialize quota tracker", "error", err)
		os.Exit(1)
	}

	// Initialize generation backend
	cfg := extraction.Config{
		Temperature:      0,
		StructuredOutput: !*noStructured,
	}
	var backend extraction.Backend
	switch *backendType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		cfg.Model = *geminiModel
		slog.Info("Initializing Gemini backend...", "model", cfg.Model)
		backend, err = extraction.NewGemini(context.Background(), apiKey, cfg)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		cfg.Model = *ollamaModel
		slog.Info("Initializing Ollama backend...", "url", *ollamaURL, "model", cfg.Model)
		backend, err = extraction.NewOllama(*ollamaURL, cfg)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid backend type", "type", *backendType, "valid", "gemini or ollama")
		os.Exit(1)
	}

	extractor := extraction.New(backend)
	defer extractor.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	service := receipt.NewService(db, store, extractor, tracker, receipt.ServiceConfig{
		Layout:        layout,
		SaveArtifacts: !*noSave,
	})

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
