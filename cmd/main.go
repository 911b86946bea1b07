package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/desertthunder/repertoire/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	// .env is optional, variables already set in the environment win
	_ = godotenv.Load()

	config := shared.DefaultConfig()
	if err := shared.ApplyEnv(config); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}

	runner := NewRunner(RunnerOpts{Config: config, Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
	runner.Close()
}
