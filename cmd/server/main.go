package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/config"
	"github.com/amineqh/auto-services-marketplace/internal/database"
	"github.com/amineqh/auto-services-marketplace/internal/handler"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/queue"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
	"github.com/amineqh/auto-services-marketplace/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)
	orders := repository.NewOrderRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	serviceH := handler.NewServiceHandler(services)
	bookingH := handler.NewBookingHandler(bookings, services)
	orderH := handler.NewOrderHandler(orders)

	e := echo.New()
	e.HideBanner = true

	// Distributed rate limiting; degrades to a pass-through when no
	// Redis server is reachable.
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		rdb := config.NewRedisClient()
		if rdb == nil {
			log.Printf("redis unreachable, rate limiting disabled")
		}
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterUsers(e, authH, cfg.JWTSecret, users)
	router.RegisterServices(e, serviceH, bookingH, cfg.JWTSecret, users)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret, users)
	router.RegisterOrders(e, orderH, cfg.JWTSecret, users)

	// Audit consumer for booking status events. Runs its own
	// reconnect loop for the life of the process.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
