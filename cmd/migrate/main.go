package main

import (
	"context"
	"flag"
	"log"
	"os"

	"surveytab/adapters/postgres"
	"surveytab/internal/codebook"
	"surveytab/internal/migration"
	"surveytab/internal/testkit"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	driver := flag.String("driver", envOr("DATABASE_DRIVER", postgres.DriverPostgres), "database driver (postgres, pgx or sqlite3)")
	url := flag.String("url", os.Getenv("DATABASE_URL"), "database connection URL")
	seed := flag.Int("seed", 0, "insert this many generated survey responses")
	reset := flag.Bool("reset", false, "drop existing tables before migrating")
	flag.Parse()

	if *url == "" {
		log.Fatal("Usage: migrate -url <database_url> [-driver sqlite3] [-seed N] [-reset]")
	}

	ctx := context.Background()
	db, err := postgres.Connect(*driver, *url)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if *reset {
		if err := runner.Reset(ctx, db); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
		log.Println("Dropped existing tables")
	}
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema at version %s", runner.Version())

	if *seed <= 0 {
		return
	}
	gen := testkit.DefaultSurveyConfig()
	gen.Rows = *seed
	rows := testkit.NewSurveyGenerator(gen, codebook.Default()).Generate()

	repo := postgres.NewResponseRepository(db)
	saved, err := repo.SaveResponses(ctx, rows.Records)
	if err != nil {
		log.Fatalf("Failed to seed responses: %v", err)
	}
	total, err := repo.CountResponses(ctx)
	if err != nil {
		log.Fatalf("Failed to count responses: %v", err)
	}
	log.Printf("Seeded %d responses (%d stored)", saved, total)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
