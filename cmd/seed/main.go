package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/excommerce-backend/internal/seed"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	"github.com/angelmondragon/excommerce-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	path := flag.String("file", "seed.json", "seed document with items and users")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.FromConfig("seed", cfg.App))
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"file": *path,
	})

	f, err := os.Open(*path)
	requireResource(ctx, logg, "seed file", err)
	file, err := seed.Load(f)
	_ = f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed file invalid:\n%v\n", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	summary, err := seed.Apply(ctx, dbClient, file, seed.Options{
		PriceList: cfg.Checkout.PriceList,
		Password:  cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"items":  summary.Items,
		"prices": summary.Prices,
		"users":  summary.Users,
	}), "seed applied")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
