package main

import (
	"store_rating/internal/config" // Custom import path (Config)
	"store_rating/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg)
}
