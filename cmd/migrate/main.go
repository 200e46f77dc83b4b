package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	"github.com/angelmondragon/excommerce-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "source directory for create and validate")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate work on the source tree and need no config.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migrations invalid:\n%v", err)
		}
		fmt.Println("migrations valid")
		return
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	logg = logger.New(logger.FromConfig("migrate", cfg.App))
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if cfg.DB.IsSQLite() {
		if *cmd != "up" {
			fail("sqlite databases only support -cmd=up")
		}
		if err := migrate.AutoSchema(dbClient.DB()); err != nil {
			fail("auto schema: %v", err)
		}
		logg.Info(ctx, "migrate.auto_schema_completed")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)
	runner, err := migrate.NewRunner(sqlDB, goose.DialectPostgres, migrate.Embedded())
	requireResource(ctx, logg, "migrations", err)

	switch *cmd {
	case "up":
		results, err := runner.Up(ctx)
		report(results...)
		if err != nil {
			fail("%v", err)
		}
	case "down":
		result, err := runner.Down(ctx)
		report(result)
		if err != nil {
			fail("%v", err)
		}
	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		results, err := runner.To(ctx, *version)
		report(results...)
		if err != nil {
			fail("%v", err)
		}
	case "status":
		status, err := runner.Status(ctx)
		if err != nil {
			fail("%v", err)
		}
		for _, s := range status {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-8s %-25s %s\n", s.State, applied, s.Source.Path)
		}
	default:
		fail("unknown -cmd value: %s", *cmd)
	}
}

func report(results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Printf("%-4s %s (%s)\n", r.Direction, r.Source.Path, r.Duration.Round(time.Millisecond))
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
