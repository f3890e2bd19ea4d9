package main

import (
	"log"

	"github.com/MrSnakeDoc/hostwatch/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ hostwatch failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ hostwatch stopped with error: %v", err)
	}
}
