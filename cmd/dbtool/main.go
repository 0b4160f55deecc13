package main

import (
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(db); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	// prune removes cached matrices so the next solve refetches fresh data.
	if len(os.Args) > 1 && os.Args[1] == "prune-cache" {
		log.Println("Pruning matrix cache...")
		if _, err := db.Exec(`DELETE FROM matrix_cache;`); err != nil {
			log.Fatalf("cache prune failed: %v", err)
		}
		log.Println("Cache pruned.")
	}
}
