package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"group-chat/api"
	"group-chat/repositories"
	"group-chat/runtime"
	"group-chat/runtime/workers"
	"group-chat/services"
	"group-chat/ws"

	"group-chat/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database cleanup
// included) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store, err := repositories.NewMessageRepository(db, log, config.LimitMessages, config.AppendTimeout)
	if err != nil {
		return fmt.Errorf("message store setup failed: %w", err)
	}
	defer func() { _ = store.Close() }()

	// 3. Live state & dispatch
	registry := runtime.NewRegistry(log, config.DeliveryTimeout)
	rooms := runtime.NewRoomManager()
	sup := workers.NewSupervisor(log, config.RestartInterval)
	dispatcher := runtime.NewDispatcher(log, registry, rooms, store, sup, config.RoomBufferSize)
	chatService := services.NewChatService(dispatcher, store)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(ctx)
	sup.Start(ctx, workers.NewTelemetryWorker(log, config.MetricInterval, gauges{registry, rooms}))

	// 5. HTTP & websocket surface
	wsConfig := ws.DefaultConfig()
	wsConfig.MaxMessageSize = config.MaxMessageSize
	wsConfig.ConnectionBufferSize = config.ConnectionBufferSize
	wsConfig.AllowedOrigins = config.AllowedOrigins

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(log, chatService, registry, auth.NewVerifier(config.TokenSecret), wsConfig))
	api.NewServer(log, chatService).Routes(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr:        address,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown forced", "error", err)
	}
	sup.Wait()
	log.Info("Program stopped cleanly")

	return nil
}

// gauges adapts the live tables to the telemetry worker.
type gauges struct {
	registry *runtime.Registry
	rooms    *runtime.RoomManager
}

func (g gauges) Connections() int { return g.registry.Count() }
func (g gauges) Rooms() int       { return g.rooms.Count() }
