package main

import (
	"context"
	"fmt"
	"log"
	"time"
	"user-service/internal/config"
	"user-service/internal/repository/postgres"

	"github.com/joho/godotenv"
)

const setupTimeout = 30 * time.Second

var expectedColumns = []string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		log.Fatalf("STORE_DRIVER is %q; this script only prepares postgres (sqlite applies its schema on open)", cfg.Store.Driver)
	}

	fmt.Println("=== Setting Up Database ===")
	fmt.Println()

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	fmt.Println("Applying schema...")
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("❌ Failed to apply schema: %v", err)
	}

	fmt.Println("✅ Schema applied successfully")
	fmt.Println()

	fmt.Println("=== Verifying users table ===")
	query := `SELECT EXISTS (
		SELECT FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = 'users'
		AND column_name = $1
	)`

	for _, column := range expectedColumns {
		var exists bool
		if err := db.Pool.QueryRow(ctx, query, column).Scan(&exists); err != nil {
			fmt.Printf("❌ Error checking column '%s': %v\n", column, err)
			continue
		}

		if exists {
			fmt.Printf("✅ Column '%s' present\n", column)
		} else {
			fmt.Printf("❌ Column '%s' missing\n", column)
		}
	}

	fmt.Println()
	fmt.Println("=== Database Setup Complete ===")
	fmt.Println()
	fmt.Println("Next: Run 'go run .' to start the server")
}
