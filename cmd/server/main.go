package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/avdberg/pvminer/internal"
	"github.com/avdberg/pvminer/internal/config"
)

func main() {
	_ = godotenv.Load()
	config.SetLogLevel()

	// Setup app
	app, cfg := internal.SetupApp()

	// Start server
	address := cfg.ServerHost + ":" + cfg.ServerPort
	log.Fatal(app.Listen(address))
}
