package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"scholarline/config"
	"scholarline/internal/domain"
	"scholarline/pkg/database"

	"github.com/google/uuid"
)

const usage = `
Scholarline Messaging - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run all migrations (SQL + GORM)
  status      Show database connection status
  seed-dev    Seed with development/test data

Flags:
  -migrations string   Path to migrations directory (default "migrations")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed-dev
`

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch flag.Arg(0) {
	case "up":
		runMigrationsUp(*migrationsDir)
	case "status":
		showStatus()
	case "seed-dev":
		runSeedDevelopment()
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(migrationsDir string) {
	if err := database.ApplyRawMigrations(migrationsDir); err != nil {
		log.Fatalf("Failed to apply raw migrations: %v", err)
	}
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("Migrations applied")
}

func showStatus() {
	sqlDB, err := database.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}
	log.Println("Database connection OK")
}

func runSeedDevelopment() {
	users := []domain.User{
		{ID: uuid.New(), FullName: "Dev Admin", Email: "admin@scholarline.dev", Role: domain.RoleAdmin, CreatedAt: time.Now()},
		{ID: uuid.New(), FullName: "Dev Coordinator", Email: "coordinator@scholarline.dev", Role: domain.RoleCoordinator, CreatedAt: time.Now()},
		{ID: uuid.New(), FullName: "Dev Applicant", Email: "applicant@scholarline.dev", Role: domain.RoleApplicant, CreatedAt: time.Now()},
	}
	for _, u := range users {
		if err := database.DB.Where("email = ?", u.Email).FirstOrCreate(&u).Error; err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}
	}
	log.Println("Development data seeded")
}
