package main

import (
	"context"
	"log"

	server "github.com/msavelyev/stocklive/internal/server"
	"github.com/msavelyev/stocklive/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	app.Run(ctx)
}
