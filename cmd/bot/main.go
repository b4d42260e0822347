package main

import (
	"context"
	"log"
	_ "time/tzdata" // APP_TIMEZONE must resolve in images without a zoneinfo database

	"github.com/sundayezeilo/engagebot/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	// Initialize application
	application, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	// Start bot and health server (blocks until shutdown)
	return application.Start(ctx)
}
