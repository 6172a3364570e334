package main

import (
	"context"
	"log"

	"github.com/stockdeck/stockdeck/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap sweeper runtime: %v", err)
	}
	if err := runtime.RunSweeper(ctx); err != nil {
		log.Fatalf("run sweeper: %v", err)
	}
}
