package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/openmixer/mixer/cmd"
)

func main() {
	// The .env file is optional.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
