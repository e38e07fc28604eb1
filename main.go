package main

import (
	"log"

	"github.com/joho/godotenv"

	"docchat/cmd"
	"docchat/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Replaced by the configured logger once a command loads its configuration.
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
