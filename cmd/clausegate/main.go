// Package main is the clausegate CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/audit"
	"github.com/hyperjump/clausegate/internal/cli"
	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/indexer"
	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/server"
	"github.com/hyperjump/clausegate/internal/watcher"
	"github.com/hyperjump/clausegate/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/clausegate/config.yaml"
	defaultServerURL  = "http://localhost:8000"
	clientTimeout     = 3 * time.Minute
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if it exists, so running from a checkout uses the checkout's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds the process logger, adding the rotating file sink when configured.
func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	return utils.NewLoggerWithFile(debug, utils.FileLogOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

// mustLocal loads config, a logger and the components for commands that work on local
// storage directly. It exits on failure.
func mustLocal(configPath string, withPipeline bool) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, withPipeline)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return components, logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "retrieve":
		runRetrieve()
	case "index":
		runIndex()
	case "audit":
		runAudit()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("clausegate version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// watchHandler adapts the indexer to the watcher, applying the configured extensions.
type watchHandler struct {
	idx        *indexer.Indexer
	extensions []string
}

func (h watchHandler) IndexFile(ctx context.Context, path string) error {
	_, err := h.idx.IndexFile(ctx, path, h.extensions)
	return err
}

func (h watchHandler) DeleteFile(ctx context.Context, path string) error {
	return h.idx.DeleteFile(ctx, path)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := newLogger(cfg, debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("faithfulness_strategy", cfg.Faithfulness.Strategy),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, dir := range cfg.Corpus.Directories {
		stats, err := components.Indexer.IndexDirectory(ctx, dir, cfg.Corpus.Extensions)
		if err != nil {
			logger.Warn("corpus directory not indexed", zap.String("dir", dir), zap.Error(err))
			continue
		}
		logger.Info("corpus directory indexed",
			zap.String("dir", dir),
			zap.Int("indexed", stats.Indexed),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed))
	}
	components.SaveVectors(logger)

	watchDone := make(chan struct{})
	if cfg.Corpus.Watch && len(cfg.Corpus.Directories) > 0 {
		w := watcher.New(
			cfg.Corpus.Directories,
			cfg.Corpus.Extensions,
			watchHandler{idx: components.Indexer, extensions: cfg.Corpus.Extensions},
			watcher.WithLogger(logger),
		)
		go func() {
			defer close(watchDone)
			if err := w.Run(ctx); err != nil {
				logger.Error("corpus watcher stopped", zap.Error(err))
			}
		}()
	} else {
		close(watchDone)
	}

	srv := server.NewServer(components.Pipeline, components.Status, cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	<-watchDone
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	components.SaveVectors(logger)
}

// buildQuestion joins all positional args with spaces so questions work with or
// without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that appear after the question to the front so flag.Parse
// sees them; the flag package stops at the first positional argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseFormat exits on an unknown output format.
func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

// parseQuestion builds and validates the request from the remaining args.
func parseQuestion(fs *flag.FlagSet, jurisdiction string) models.QueryRequest {
	req := models.QueryRequest{
		Question:     buildQuestion(fs.Args()),
		Jurisdiction: models.Jurisdiction(jurisdiction),
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		fs.Usage()
		os.Exit(1)
	}
	return req
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = answer locally without a running server)")
	jurisdiction := fs.String("jurisdiction", string(models.JurisdictionGDPR), "regulatory regime: GDPR or DPDP")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: clausegate ask [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseFormat(*outputFormat)
	req := parseQuestion(fs, *jurisdiction)
	ctx := context.Background()

	var (
		resp *models.QueryResponse
		err  error
	)
	if *serverURL != "" {
		resp, err = cli.NewClient(*serverURL, clientTimeout).Query(ctx, req)
	} else {
		resp, err = askLocal(ctx, *configPath, req)
	}
	if resp == nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if writeErr := cli.WriteQueryResponse(os.Stdout, resp, format); writeErr != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", writeErr)
		os.Exit(1)
	}
	if err != nil || resp.Outcome == models.OutcomeError {
		os.Exit(2)
	}
}

// askLocal runs the decision pipeline in this process. Resources are released before
// the caller picks an exit status.
func askLocal(ctx context.Context, configPath string, req models.QueryRequest) (*models.QueryResponse, error) {
	components, logger := mustLocal(configPath, true)
	defer logger.Sync()
	defer components.Close()
	return components.Pipeline.Run(ctx, req)
}

func runRetrieve() {
	fs := flag.NewFlagSet("retrieve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = retrieve locally)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: clausegate retrieve [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseFormat(*outputFormat)
	req := parseQuestion(fs, string(models.JurisdictionGDPR))
	ctx := context.Background()

	var (
		dbg *models.RetrievalDebug
		err error
	)
	if *serverURL != "" {
		dbg, err = cli.NewClient(*serverURL, clientTimeout).Retrieve(ctx, req)
	} else {
		components, logger := mustLocal(*configPath, true)
		dbg, err = components.Pipeline.Retrieve(ctx, req.Question)
		components.Close()
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRetrieval(os.Stdout, dbg, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: clausegate index [flags] <file|directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat %s: %v\n", path, err)
		os.Exit(1)
	}

	components, logger := mustLocal(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	exts := components.Config.Corpus.Extensions
	ctx := context.Background()

	if info.IsDir() {
		stats, err := components.Indexer.IndexDirectory(ctx, path, exts)
		components.SaveVectors(logger)
		if err != nil {
			logger.Fatal("Failed to index directory", zap.Error(err))
		}
		fmt.Printf("Indexed %d, skipped %d, failed %d file(s) under %s\n", stats.Indexed, stats.Skipped, stats.Failed, path)
		return
	}
	indexed, err := components.Indexer.IndexFile(ctx, path, nil)
	components.SaveVectors(logger)
	if err != nil {
		if errors.Is(err, indexer.ErrExtract) {
			fmt.Printf("Could not read %s: %v\n", path, err)
			os.Exit(1)
		}
		logger.Fatal("Failed to index file", zap.Error(err))
	}
	if indexed {
		fmt.Printf("Indexed %s\n", path)
	} else {
		fmt.Printf("Unchanged %s\n", path)
	}
}

// lastN returns at most n trailing records; n <= 0 returns all of them.
func lastN(records []models.AuditRecord, n int) []models.AuditRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

func runAudit() {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the audit log file directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	limit := fs.Int("limit", 0, "show only the most recent N records (0 = all)")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*outputFormat)
	ctx := context.Background()

	var (
		records []models.AuditRecord
		err     error
	)
	if *serverURL != "" {
		records, err = cli.NewClient(*serverURL, clientTimeout).AuditLogs(ctx)
	} else {
		cfg, _, loadErr := loadConfig(*configPath)
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", loadErr)
			os.Exit(1)
		}
		recorder, openErr := audit.NewJSONLRecorder(cfg.Storage.AuditLogPath)
		if openErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to open audit log: %v\n", openErr)
			os.Exit(1)
		}
		records, err = recorder.List(ctx)
		_ = recorder.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Audit read failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAuditRecords(os.Stdout, lastN(records, *limit), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read local storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*outputFormat)
	ctx := context.Background()

	var (
		st  *server.Status
		err error
	)
	if *serverURL != "" {
		st, err = cli.NewClient(*serverURL, clientTimeout).Status(ctx)
	} else {
		components, logger := mustLocal(*configPath, false)
		st, err = components.Status(ctx)
		components.Close()
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`clausegate - Grounded answers to data-protection questions, or an explicit refusal

Usage:
  clausegate server [flags]              Start the HTTP server
  clausegate ask [flags] <question>      Ask a regulatory question
  clausegate retrieve [flags] <question> Show raw retrieval for a question
  clausegate index [flags] <path>        Index a file or directory into the clause corpus
  clausegate audit [flags]               List audit records
  clausegate status [flags]              Show corpus, index and configuration status
  clausegate version                     Show version
  clausegate help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/clausegate/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --config string        Config file path (for direct mode)
  --server string        Server URL (default: http://localhost:8000). Use --server "" to answer locally.
  --jurisdiction string  GDPR or DPDP (default: GDPR)
  --output string        Output format: text or json (default: text)

Retrieve, Audit and Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8000). Use --server "" for direct mode.
  --output string    Output format: text or json (default: text)
  --limit int        audit only: most recent N records

Exit status of ask: 0 for ANSWERED or ABSTAINED, 2 for ERROR.

Examples:
  clausegate server
  clausegate index ./corpus
  clausegate ask "What is the breach notification deadline?"
  clausegate ask --jurisdiction DPDP --output json "Who is a data fiduciary?"
  clausegate retrieve "lawful basis for processing"
  clausegate audit --limit 20
  clausegate status --output json`)
}
