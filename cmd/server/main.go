package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/evenzo/event-booking/internal/config"
	"github.com/evenzo/event-booking/internal/database"
	"github.com/evenzo/event-booking/internal/handler"
	"github.com/evenzo/event-booking/internal/queue"
	"github.com/evenzo/event-booking/internal/repository"
	"github.com/evenzo/event-booking/internal/router"
	"github.com/evenzo/event-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: when the client is nil the response cache and
	// rate limiter both pass requests straight through.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	tickets := repository.NewTicketRepo(db)

	bookingSvc := service.NewBookingService(db, events, bookings, tickets)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens),
		Events:   handler.NewEventHandler(events, bookings),
		Bookings: handler.NewBookingHandler(bookingSvc, bookings),
		Tickets:  handler.NewTicketHandler(tickets),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, h, rdb)
	router.RegisterAuth(e, h)
	router.RegisterProtected(e, h, cfg.JWTSecret)

	// The consumer reconnects on its own; it never returns under
	// normal operation.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
