package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/mcdev12/liveauction/internal/statecache"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// roomwatch tails one room from the terminal: it mirrors the room state
// the same way a browser client does (feed push plus poll fallback) and
// prints a summary line on every change.
func main() {
	apiURL := flag.String("api", "http://localhost:8080", "auction API base URL")
	natsURL := flag.String("nats", "", "NATS URL (empty disables push, poll only)")
	prefix := flag.String("prefix", feed.DefaultSubjectPrefix, "feed subject prefix")
	roomArg := flag.String("room", "", "room id")
	token := flag.String("token", "", "room token (any role)")
	flag.Parse()

	if *roomArg == "" || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: roomwatch -room <id> -token <token> [-api url] [-nats url]")
		os.Exit(2)
	}
	roomID, err := uuid.Parse(*roomArg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid room id")
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	if err := run(roomID, *apiURL, *natsURL, *prefix, *token); err != nil {
		log.Fatal().Err(err).Msg("roomwatch failed")
	}
}

func run(roomID uuid.UUID, apiURL, natsURL, prefix, token string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var subscriber *feed.Subscriber
	if natsURL != "" {
		nc, err := nats.Connect(natsURL, feed.ConnectOptions()...)
		if err != nil {
			return err
		}
		defer nc.Close()
		subscriber = feed.NewSubscriber(nc, prefix)
	}

	cache := statecache.NewCache()
	fetcher := statecache.NewHTTPFetcher(apiURL, token, nil)
	syncer := statecache.NewSyncer(roomID, cache, fetcher, subscriber, clockwork.NewRealClock(), auction.PollInterval)

	updates := cache.Subscribe()
	if err := syncer.Start(ctx); err != nil {
		return err
	}
	defer syncer.Stop()

	printState(cache.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			printState(cache.Snapshot())
		}
	}
}

func printState(state statecache.RoomState) {
	if state.Room == nil {
		return
	}

	current := "-"
	if state.Room.CurrentPlayer != nil {
		for _, p := range state.Players {
			if p.ID == *state.Room.CurrentPlayer {
				current = p.Name
				break
			}
		}
	}

	sold := 0
	for _, p := range state.Players {
		if p.Status == models.PlayerStatusSold {
			sold++
		}
	}

	fmt.Printf("%s | on the block: %-12s | bids: %3d | sold: %d/%d | messages: %d\n",
		state.Room.Name, current, len(state.Bids), sold, len(state.Players), len(state.Messages))
}
