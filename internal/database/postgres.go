package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"movie-discovery-weather-recommender/internal/config"
	"movie-discovery-weather-recommender/internal/models"
)

// NewPostgres opens a PostgreSQL connection and runs migrations.
func NewPostgres(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS catalog_movies (
			id INTEGER PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			genres TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_movies_title ON catalog_movies(title)`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}

// ReplaceCatalog swaps the contents of catalog_movies for movies in one
// transaction using COPY. Rows without an id are numbered after the largest
// explicit id.
func ReplaceCatalog(ctx context.Context, db *sql.DB, movies []models.MovieRecord) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `TRUNCATE catalog_movies`); err != nil {
		return fmt.Errorf("truncate catalog_movies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("catalog_movies", "id", "title", "genres"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	ids := assignIDs(movies)
	for i, m := range movies {
		if _, err = stmt.ExecContext(ctx, ids[i], m.Title, m.Genres); err != nil {
			stmt.Close()
			return fmt.Errorf("copy row %d: %w", i, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("catalog imported", "movies", len(movies))
	return nil
}

// assignIDs keeps explicit ids and numbers the rest from max(id)+1 upward.
func assignIDs(movies []models.MovieRecord) []int {
	next := 0
	for _, m := range movies {
		next = max(next, m.ID)
	}
	ids := make([]int, len(movies))
	for i, m := range movies {
		if m.ID > 0 {
			ids[i] = m.ID
			continue
		}
		next++
		ids[i] = next
	}
	return ids
}
