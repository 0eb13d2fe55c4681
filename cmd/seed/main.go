// cmd/seed loads demo data: the default notification config and a handful
// of items, some already below threshold. Existing item numbers are left
// untouched, so running it twice is harmless.
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"assettracker/internal/config"
	"assettracker/internal/dto"
	"assettracker/internal/infra"
	"assettracker/internal/repository"
	"assettracker/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

var demoItems = []dto.CreateItemRequest{
	{ItemNumber: "HW-001", AssetType: "Hardware", Description: "Dell Latitude 7420 Laptop", Category: strPtr("Laptop"), Cost: decimal.RequireFromString("1200.00"), MinimumThreshold: 10, ReorderAmount: 20, CurrentQuantity: 15},
	{ItemNumber: "HW-002", AssetType: "Hardware", Description: "Dell 24in Monitor P2422H", Category: strPtr("Monitor"), Cost: decimal.RequireFromString("219.99"), MinimumThreshold: 15, ReorderAmount: 30, CurrentQuantity: 8},
	{ItemNumber: "HW-003", AssetType: "Hardware", Description: "Logitech MX Keys Keyboard", Category: strPtr("Peripheral"), Cost: decimal.RequireFromString("99.00"), MinimumThreshold: 20, ReorderAmount: 25, CurrentQuantity: 42},
	{ItemNumber: "HW-004", AssetType: "Hardware", Description: "USB-C Docking Station", Category: strPtr("Peripheral"), Cost: decimal.RequireFromString("189.50"), MinimumThreshold: 12, ReorderAmount: 12, CurrentQuantity: 3},
	{ItemNumber: "SW-001", AssetType: "Software", Description: "Microsoft 365 E3 License", Category: strPtr("License"), Cost: decimal.RequireFromString("36.00"), MinimumThreshold: 50, ReorderAmount: 100, CurrentQuantity: 120},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := infra.RunMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	if _, err := repository.NewNotificationConfigRepository(db).Get(ctx); err != nil {
		log.Fatal().Err(err).Msg("notification config")
	}

	// No notifier: seeding must not mail anyone.
	svc := service.NewInventoryService(repository.NewInventoryRepository(db), repository.NewAuditRepository(db), nil, cfg.BaseURL)
	created := 0
	for _, req := range demoItems {
		_, err := svc.Create(ctx, req, "seed")
		switch {
		case errors.Is(err, service.ErrItemExists):
			continue
		case err != nil:
			log.Fatal().Err(err).Str("item_number", req.ItemNumber).Msg("create item")
		}
		created++
	}
	fmt.Printf("seeded %d item(s), %d already present\n", created, len(demoItems)-created)
}
