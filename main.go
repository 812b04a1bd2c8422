package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/terrainbook/booking-api/cmd/app"
)

// @title        Booking API
// @version      1.0
// @description  Sports field reservations, weekly subscriptions and staff tools.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
