package main

import (
	"context"
	"log"
	"time"

	"github.com/commboard/lottery-engine/internal/environment"
	mongorepo "github.com/commboard/lottery-engine/internal/repositories/mongodb"
	"github.com/commboard/lottery-engine/internal/services"
	"github.com/commboard/lottery-engine/pkg/mongodb"
	"github.com/joho/godotenv"
)

// Runs one donor-data retention sweep and exits. Intended for operators who
// need a sweep outside the scheduler cadence, for example after shortening
// the retention window.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	if !environment.GetEnvAsBool("LOTTERY_ENABLED", true) {
		log.Fatal("Lottery feature is disabled, not sweeping")
	}

	mongoURI := environment.GetEnv("MONGODB_URI", "")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is required")
	}
	dbName := environment.GetEnv("MONGODB_DATABASE", "commboard-lottery")
	window := environment.GetEnvAsDuration("LOTTERY_RETENTION_WINDOW", 4*7*24*time.Hour)
	timeoutMinutes := environment.GetEnvAsInt("SWEEP_TIMEOUT_MINUTES", 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMinutes)*time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, mongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(dbName)
	merchandiseRepo := mongorepo.NewMerchandiseRepository(db)
	retentionService := services.NewRetentionService(merchandiseRepo, window)

	archived, err := retentionService.Sweep(ctx, time.Now())
	if err != nil {
		log.Fatalf("Retention sweep failed: %v", err)
	}
	log.Printf("Retention sweep complete, %d packet(s) archived", archived)
}
