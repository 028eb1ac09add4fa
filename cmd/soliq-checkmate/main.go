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
	"github.com/zombor/soliq-checkmate/internal/export"
	"github.com/zombor/soliq-checkmate/internal/ofd"
	"github.com/zombor/soliq-checkmate/internal/receipt"
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

	defaults := ofd.DefaultFetcherConfig()

	fs := ff.NewFlagSet("soliq-checkmate")
	var (
		receiptURL  = fs.StringLong("url", "", "Receipt link to export once and exit (starts the server when empty)")
		formatName  = fs.StringLong("format", "xlsx", "Export format: 'xlsx' or 'csv'")
		outDir      = fs.StringLong("out", ".", "Directory for one-shot exports")
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "soliq-checkmate.db", "Database file path for pending lookups")
		timeout     = fs.DurationLong("timeout", defaults.Timeout, "Bound on a whole receipt fetch, retries included")
		retries     = fs.IntLong("retries", defaults.MaxRetries, "Transport retries after the first attempt")
		headersPath = fs.StringLong("headers", "", "JSON5 file with request header overrides (optional)")
		cloudflare  = fs.BoolLong("cloudflare", "Wrap the transport with the Cloudflare bypass")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		debug       = fs.BoolLong("debug", "Enable debug logging")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SOLIQ_CHECKMATE"),
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

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	format, err := export.ParseFormat(*formatName)
	if err != nil {
		slog.Error("Invalid export format", "format", *formatName, "error", err)
		os.Exit(1)
	}

	headers, err := ofd.LoadHeaders(*headersPath)
	if err != nil {
		slog.Error("Failed to load request headers", "path", *headersPath, "error", err)
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

	// Initialize fetcher
	cfg := defaults
	cfg.Headers = headers
	cfg.Timeout = *timeout
	cfg.MaxRetries = *retries
	cfg.BypassCloudflare = *cloudflare
	slog.Info("Initializing fetcher...", "timeout", cfg.Timeout, "retries", cfg.MaxRetries, "cloudflare", cfg.BypassCloudflare)
	fetcher := ofd.NewHTTPFetcher(cfg)

	// Initialize storage
	store, err := receipt.NewLocalStorage(*outDir)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	receiptService := receipt.NewService(db, fetcher, store)

	if *receiptURL != "" {
		code := runOnce(receiptService, *receiptURL, format)
		db.Close()
		os.Exit(code)
	}

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

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

// runOnce exports a single receipt and returns the process exit code
func runOnce(service *receipt.Service, url string, format export.Format) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := service.ExportURL(ctx, url, format)
	if err != nil {
		slog.Error("Export failed", "url", url, "error", err)
		return 1
	}

	fmt.Println(path)
	return 0
}
