package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/config"
	"github.com/mcdev12/liveauction/internal/database"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/gateway"
	"github.com/mcdev12/liveauction/internal/httpapi"
	"github.com/mcdev12/liveauction/internal/repository"
	"github.com/mcdev12/liveauction/internal/watchdog"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.MigrateUp(cfg.Database.DSN()); err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.Database.Host).Msg("database connected")

	nc, err := nats.Connect(cfg.NATS.URL, feed.ConnectOptions()...)
	if err != nil {
		return err
	}
	defer nc.Close()
	log.Info().Str("url", cfg.NATS.URL).Msg("NATS connected")

	publisher := feed.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
	subscriber := feed.NewSubscriber(nc, cfg.NATS.SubjectPrefix)

	uowFactory := repository.NewUnitOfWorkFactory(db, publisher)
	clock := clockwork.NewRealClock()
	auctionSvc := auction.NewService(uowFactory, clock)
	roomSvc := auction.NewRoomService(uowFactory)

	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go manager.Start(ctx)

	bridge := gateway.NewFeedBridge(subscriber, manager)
	if err := bridge.Start(); err != nil {
		return err
	}
	defer bridge.Stop()

	dog := watchdog.New(auctionSvc, subscriber, clock)
	if err := dog.Start(ctx, repository.NewRoomRepository(db.Pool)); err != nil {
		return err
	}
	defer dog.Stop()

	api := httpapi.NewServer(auctionSvc, roomSvc, manager)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(cfg.Server.AllowedOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
