package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/database"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/repository"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// seedroom provisions a room from a YAML definition and prints the access
// tokens. Useful for local development and for organizers who prefer a
// file over the create endpoint.
func main() {
	defPath := flag.String("f", "", "path to room definition YAML")
	flag.Parse()

	if *defPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seedroom -f room.yaml")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	if err := run(*defPath); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run(defPath string) error {
	data, err := os.ReadFile(defPath)
	if err != nil {
		return fmt.Errorf("failed to read room definition: %w", err)
	}

	var req auction.CreateRoomRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse room definition: %w", err)
	}

	ctx := context.Background()
	dbCfg := database.NewConfigFromEnv()

	if err := database.MigrateUp(dbCfg.DSN()); err != nil {
		return err
	}

	db, err := database.Connect(ctx, dbCfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	uowFactory := repository.NewUnitOfWorkFactory(db, feed.NopPublisher{})
	rooms := auction.NewRoomService(uowFactory)

	resp, err := rooms.CreateRoom(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("room_id:         %s\n", resp.Room.ID)
	fmt.Printf("organizer_token: %s\n", resp.OrganizerToken)
	fmt.Printf("viewer_token:    %s\n", resp.ViewerToken)
	for _, cred := range resp.Credentials {
		fmt.Printf("team %-20s leader_token: %s\n", cred.Name, cred.LeaderToken)
	}
	return nil
}
