package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/warmline/internal/config"
	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/domain/transfer"
	"github.com/rpggio/warmline/internal/livekit"
	"github.com/rpggio/warmline/internal/mcp"
	"github.com/rpggio/warmline/internal/sqlite"
	"github.com/rpggio/warmline/internal/summary"
	"github.com/rpggio/warmline/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("WARMLINE_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	issuer, err := grant.NewIssuer(grant.Config{
		APIKey:     cfg.Media.APIKey,
		APISecret:  cfg.Media.APISecret,
		DefaultTTL: cfg.Grants.DefaultTTL,
		MaxTTL:     cfg.Grants.MaxTTL,
	})
	if err != nil {
		logger.Error("failed to configure grant issuer", "error", err)
		os.Exit(1)
	}

	roomRepo := sqlite.NewRoomRepository(db)
	callRepo := sqlite.NewCallRepository(db)
	transferRepo := sqlite.NewTransferRepository(db)
	conversationRepo := sqlite.NewConversationRepository(db)

	media := livekit.NewClient(livekit.Config{URL: cfg.Media.URL}, issuer)
	summarizer := summary.NewClient(summary.Config{
		BaseURL: cfg.Summary.BaseURL,
		APIKey:  cfg.Summary.APIKey,
		Model:   cfg.Summary.Model,
	})

	locks := call.NewLockTable()
	rooms := room.NewRegistry(roomRepo, media, room.RegistryConfig{
		EmptyTimeout: cfg.Rooms.EmptyTimeout,
	}, logger)
	conversations := conversation.NewLog(conversationRepo, callRepo, locks, logger)
	machine := transfer.NewMachine(
		transferRepo, callRepo, rooms, issuer, conversations, summarizer, media,
		locks, transfer.MachineConfig{SummaryTimeout: cfg.Summary.Timeout}, logger,
	)
	manager := call.NewManager(callRepo, rooms, issuer, machine, locks, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Calls:         manager,
			Transfers:     machine,
			Conversations: conversations,
		},
		Logger: logger,
	})

	if cfg.Transport.Mode == "stdio" {
		runStdioMode(logger, mcpServer)
		return
	}
	runHTTPMode(cfg, logger, mcpServer, transport.Services{
		Calls:         manager,
		Transfers:     machine,
		Conversations: conversations,
	})
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport")

	stdio := &sdkmcp.StdioTransport{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, stdio); err != nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(cfg config.Config, logger *slog.Logger, mcpServer *sdkmcp.Server, services transport.Services) {
	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		authMiddleware = transport.AuthMiddleware(cfg.Auth.Token)
	} else {
		logger.Warn("api auth disabled")
	}

	mcpHandler := mcp.NewHTTPHandler(mcpServer, logger)
	router := transport.NewServer(services, authMiddleware, mcpHandler, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
