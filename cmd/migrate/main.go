package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/oily/oily-api/infrastructure/adapter/postgres"
	"github.com/oily/oily-api/infrastructure/service/logger"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       "info",
		Format:      "text",
		ServiceName: "oily-migrate",
	})

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	migrator, err := postgres.NewMigrator(db, postgres.Migrations(), structuredLogger)
	if err != nil {
		log.Fatalf("failed to load migrations: %v", err)
	}
	switch strings.ToLower(*mode) {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
	if err != nil {
		log.Fatalf("migration %s failed: %v", *mode, err)
	}
	structuredLogger.Info(ctx, "Migration completed", map[string]interface{}{"mode": *mode})
}
