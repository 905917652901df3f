package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/benbjohnson/clock"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"social-chat/auth"
	"social-chat/infrastructure/rest"
	"social-chat/infrastructure/ws"
	"social-chat/internal"
	"social-chat/moderation"
	"social-chat/notify"
	"social-chat/repositories"
	"social-chat/runtime"
	"social-chat/services"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger. The .env file is optional, the environment wins.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	mask, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := internal.LoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB), the single durable resource of the process.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Content moderation.
	censor, err := moderation.NewCensor(splitWords(config.CensoredWords), mask)
	if err != nil {
		return exitConfig, fmt.Errorf("building censor: %w", err)
	}

	// 4. Core wiring: store, presence, collaborators, service, gateway.
	repository := repositories.NewConversationRepository(db, logger, clock.New())
	registry := runtime.NewRegistry()
	notifier := notify.NewDispatcher(config.NotifyEndpoint, config.NotifyAuthToken, config.NotifyTimeout)
	directory := repositories.NewStaticUserDirectory(nil)
	verifier := auth.NewVerifier(config.JWTSecret)

	chatService := services.NewChatService(
		logger, repository, registry, notifier, directory, censor, config.NotifyTimeout)

	gateway := ws.NewGateway(
		logger, verifier, registry, chatService, config.HandshakeTimeout, config.SessionBuffer)

	router := rest.NewRouter(logger, verifier, chatService, gateway)

	// 5. Serve until a termination signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: config.Addr, Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", config.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return exitRuntime, fmt.Errorf("shutdown: %w", err)
		}
		return exitOK, nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("server failed: %w", err)
	}
}

func splitWords(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(word string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(word)
		return trimmed, trimmed != ""
	})
}
