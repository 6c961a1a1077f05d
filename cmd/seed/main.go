// Command seed loads listings and partner shops from a JSON file into the
// database. Entries that already exist are skipped.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"

	"handoff/internal/config"
	"handoff/internal/logger"
	"handoff/internal/models"
	"handoff/internal/repositories"
	"handoff/internal/services/directory"

	"go.uber.org/zap"
)

type seedFile struct {
	Listings []models.Listing     `json:"listings"`
	Shops    []models.PartnerShop `json:"shops"`
}

func main() {
	path := flag.String("file", "seed.json", "JSON file with listings and shops")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(config.IsProduction())
	defer func() { _ = log.Sync() }()

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal("failed to read seed file", zap.String("file", *path), zap.Error(err))
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatal("failed to parse seed file", zap.String("file", *path), zap.Error(err))
	}

	db, err := repositories.NewPostgres(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	n := seed(context.Background(), directory.NewService(repositories.NewGormStore(db), nil, log), data, log)
	log.Info("seed complete", zap.Int("created", n))
}

func seed(ctx context.Context, dir directory.Service, data seedFile, log *zap.Logger) int {
	created := 0
	for i := range data.Shops {
		_, err := dir.CreateShop(ctx, &data.Shops[i])
		switch {
		case errors.Is(err, directory.ErrShopExists):
			log.Info("partner shop already exists", zap.String("shop_id", data.Shops[i].ID))
		case err != nil:
			log.Error("failed to create partner shop", zap.String("shop_id", data.Shops[i].ID), zap.Error(err))
		default:
			created++
		}
	}
	for i := range data.Listings {
		_, err := dir.CreateListing(ctx, &data.Listings[i])
		switch {
		case errors.Is(err, directory.ErrListingExists):
			log.Info("listing already exists", zap.String("item_id", data.Listings[i].ID))
		case err != nil:
			log.Error("failed to create listing", zap.String("item_id", data.Listings[i].ID), zap.Error(err))
		default:
			created++
		}
	}
	return created
}
