package main

import (
	"github.com/joho/godotenv"

	"hraccess/internal/app/server"
)

func main() {
	// Missing .env is fine; containers set the environment directly.
	_ = godotenv.Load()
	server.Run()
}
