package main

import (
	"log"

	"kiosk/internal/app"
)

func main() {
	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to start terminal: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Terminal stopped with error: %v", err)
	}
}
