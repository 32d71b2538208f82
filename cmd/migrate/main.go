package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"geocatalog/internal/config"
	"geocatalog/internal/logger"
	"geocatalog/internal/repository/sqlite"
	"geocatalog/internal/service"
	"geocatalog/internal/service/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	dbPath := flag.String("db", cfg.DBPath, "Database path")
	mediaRoot := flag.String("media", cfg.MediaRoot, "Directory holding entity images")
	createUser := flag.String("createuser", "", "Create a user with this username")
	password := flag.String("password", "", "Password for -createuser")
	email := flag.String("email", "", "Email for -createuser")
	deleteUser := flag.String("deleteuser", "", "Delete this user, their entities and their image files")
	flag.Parse()

	cfg.DBPath = *dbPath
	cfg.MediaRoot = *mediaRoot

	log := logger.NewWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, cfg.LogLevel)
	ctx := log.WithContext(context.Background())

	fmt.Printf("Applying schema to %s\n", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create database directory")
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	users := sqlite.NewUserRepository(db)
	entities := sqlite.NewEntityRepository(db)

	if *createUser != "" {
		auth := service.NewAuthService(users, sqlite.NewTokenRepository(db), cfg.BcryptCost)
		user, err := auth.CreateUser(ctx, *createUser, *password, *email)
		if err != nil {
			log.Fatal().Err(err).Str("username", *createUser).Msg("failed to create user")
		}
		fmt.Printf("Created user %s (id %d)\n", user.Username, user.ID)
	}

	if *deleteUser != "" {
		media, err := storage.NewMediaStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open media root")
		}
		removed, err := deleteAccount(ctx, users, entities, media, *deleteUser)
		if err != nil {
			log.Fatal().Err(err).Str("username", *deleteUser).Msg("failed to delete user")
		}
		fmt.Printf("Deleted user %s and %d entities\n", *deleteUser, removed)
	}

	if err := printStats(ctx, users, entities); err != nil {
		log.Error().Err(err).Msg("failed to read statistics")
	}
}

// deleteAccount removes the user's image files, then the user. Entities,
// tokens and offline markers go with the user row.
func deleteAccount(ctx context.Context, users *sqlite.UserRepository, entities *sqlite.EntityRepository,
	media *storage.MediaStore, username string) (int, error) {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}

	owned, err := entities.ListByOwner(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	for _, e := range owned {
		if !e.HasImage() {
			continue
		}
		if err := media.Remove(e.Image); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int64("entity_id", e.ID).Msg("failed to remove image file")
		}
	}

	if err := users.Delete(ctx, user.ID); err != nil {
		return 0, err
	}
	return len(owned), nil
}

func printStats(ctx context.Context, users *sqlite.UserRepository, entities *sqlite.EntityRepository) error {
	userCount, err := users.Count(ctx)
	if err != nil {
		return err
	}
	entityCount, err := entities.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nCatalog statistics:\n")
	fmt.Printf("   Users:    %d\n", userCount)
	fmt.Printf("   Entities: %d\n", entityCount)
	return nil
}
