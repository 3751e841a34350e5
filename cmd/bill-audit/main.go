package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/bill-audit/internal/bill"
	"github.com/zombor/bill-audit/internal/scanning"
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

	// Local .env files are optional
	godotenv.Load()

	fs := ff.NewFlagSet("bill-audit")
	var (
		port             = fs.IntLong("port", 8080, "HTTP server port")
		dbPath           = fs.StringLong("db", "bill-audit.db", "Database file path")
		storagePath      = fs.StringLong("storage", "./documents", "Storage directory path")
		scannerType      = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey        = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel      = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL        = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel      = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl, bakllava)")
		ocrEnabled       = fs.BoolLong("ocr", "Run tesseract OCR per page and feed the text to the scanner")
		ocrLanguages     = fs.StringLong("ocr-languages", "eng", "Tesseract languages, '+'-separated (e.g., 'eng+hin')")
		perfectThreshold = fs.Float64Long("perfect-threshold", 0.005, "Relative variance at or under which reconciliation is perfect")
		reviewThreshold  = fs.Float64Long("review-threshold", 0.05, "Relative variance above which extraction needs review")
		minQuality       = fs.Float64Long("min-quality", 50, "Minimum extraction quality score (0-100) to accept a document")
		authUser         = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass         = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion      = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILL_AUDIT"),
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

	// Initialize database
	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
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
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	// Optional OCR assist
	var textExtractor scanning.TextExtractor
	if *ocrEnabled {
		slog.Info("Initializing tesseract OCR...", "languages", *ocrLanguages)
		tesseract, err := scanning.NewTesseract(*ocrLanguages)
		if err != nil {
			slog.Error("Failed to initialize tesseract", "error", err)
			os.Exit(1)
		}
		defer tesseract.Close()
		textExtractor = tesseract
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := bill.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Reconciliation policy comes from flags so it can differ per deployment
	config := bill.DefaultConfig()
	config.PerfectThreshold = *perfectThreshold
	config.ReviewThreshold = *reviewThreshold

	// Initialize service
	billService := bill.NewService(db, scanner, textExtractor, store, config, *minQuality)

	// Initialize server
	basicAuth := bill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := bill.NewServer(billService, basicAuth, version)

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
