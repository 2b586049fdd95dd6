// Command main runs the database seeder for Quarry.
package main

import (
	"flag"
	"log"

	"quarry/internal/bootstrap"
	"quarry/internal/config"
	"quarry/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numProblems := flag.Int("problems", 200, "Number of problems to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d problems, clean=%v", *numUsers, *numProblems, *shouldClean)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedDemoData: true,
		SeedUsers:    *numUsers,
		SeedProblems: *numProblems,
		SeedClean:    *shouldClean,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All seed users have the password: password123")
}
