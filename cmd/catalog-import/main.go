// Command catalog-import loads a movies CSV into the catalog_movies table.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"movie-discovery-weather-recommender/internal/catalog"
	"movie-discovery-weather-recommender/internal/config"
	"movie-discovery-weather-recommender/internal/database"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	path := flag.String("csv", cfg.Catalog.Path, "path to the movies CSV (id,title,genres)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := catalog.Load(*path)
	if err != nil {
		slog.Error("failed to read catalog", "path", *path, "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgres(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.ReplaceCatalog(ctx, db, c.Movies()); err != nil {
		slog.Error("catalog import failed", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog imported", "path", *path, "movies", c.Len())
}
