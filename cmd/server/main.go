package main

import (
	"context"
	"log"

	"github.com/A1iAshoor/s3-relay/internal/server"
	"github.com/A1iAshoor/s3-relay/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
