package main

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Keyur1433/digipark-backend/internal/api"
	"github.com/Keyur1433/digipark-backend/internal/auth"
	"github.com/Keyur1433/digipark-backend/internal/config"
	"github.com/Keyur1433/digipark-backend/internal/db"
	"github.com/Keyur1433/digipark-backend/internal/repository"
	"github.com/Keyur1433/digipark-backend/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("load config", "error", err)
	}

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("open database", "error", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalw("connect database", "error", err)
	}
	defer database.Close()

	// Repositories
	userRepo := repository.NewUserRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	locationRepo := repository.NewLocationRepository(database)
	timeSlotRepo := repository.NewTimeSlotRepository(database)
	bookingRepo := repository.NewBookingRepository(database)
	reportRepo := repository.NewReportRepository(database)
	jobRepo := repository.NewJobRepository(database)

	// Services
	sender := service.NewSenderService(cfg, log)
	issuer := service.NewTokenIssuer()
	authSvc := service.NewAuthService(userRepo, sender, cfg.JWTSecret, log)
	vehicleSvc := service.NewVehicleService(vehicleRepo, bookingRepo)
	locationSvc := service.NewLocationService(locationRepo, log)
	timeSlotSvc := service.NewTimeSlotService(timeSlotRepo, locationRepo)
	bookingSvc := service.NewBookingService(bookingRepo, vehicleRepo, locationRepo, userRepo, issuer, sender, log)
	reportSvc := service.NewReportService(reportRepo)
	jobSvc := service.NewJobService(jobRepo, bookingRepo, userRepo, log)

	// Handlers
	authHandler := api.NewAuthHandler(authSvc, log)
	vehicleHandler := api.NewVehicleHandler(vehicleSvc, log)
	locationHandler := api.NewLocationHandler(locationSvc, timeSlotSvc, log)
	bookingHandler := api.NewBookingHandler(bookingSvc, log)
	ownerHandler := api.NewOwnerHandler(bookingSvc, reportSvc, log)
	adminHandler := api.NewAdminHandler(bookingSvc, locationSvc, reportSvc, userRepo, log)

	r := mux.NewRouter()
	apiRouter := r.PathPrefix("/api").Subrouter()

	// Public endpoints
	apiRouter.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	apiRouter.HandleFunc("/auth/verify-otp", authHandler.VerifyOtp).Methods("POST")
	apiRouter.HandleFunc("/auth/resend-otp", authHandler.ResendOtp).Methods("POST")
	apiRouter.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	apiRouter.HandleFunc("/auth/forgot-password", authHandler.ForgotPassword).Methods("POST")
	apiRouter.HandleFunc("/auth/reset-password", authHandler.ResetPassword).Methods("POST")
	apiRouter.HandleFunc("/parking-locations", locationHandler.Search).Methods("GET")
	apiRouter.HandleFunc("/parking-locations/{id}", locationHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/parking-locations/{id}/availability", locationHandler.Availability).Methods("GET")
	apiRouter.HandleFunc("/parking-locations/{id}/time-slots", locationHandler.TimeSlots).Methods("GET")
	apiRouter.HandleFunc("/parking-locations/{id}/dates", locationHandler.BookableDates).Methods("GET")

	// Authenticated user endpoints
	user := apiRouter.PathPrefix("/user").Subrouter()
	user.Use(auth.Middleware(cfg.JWTSecret))
	user.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	user.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PUT")
	user.HandleFunc("/change-password", authHandler.ChangePassword).Methods("POST")
	user.HandleFunc("/vehicles", vehicleHandler.Create).Methods("POST")
	user.HandleFunc("/vehicles", vehicleHandler.List).Methods("GET")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.Get).Methods("GET")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.Update).Methods("PUT")
	user.HandleFunc("/vehicles/{id}", vehicleHandler.Delete).Methods("DELETE")
	user.HandleFunc("/bookings/walk-in", bookingHandler.CreateWalkIn).Methods("POST")
	user.HandleFunc("/bookings/advance", bookingHandler.CreateAdvance).Methods("POST")
	user.HandleFunc("/bookings", bookingHandler.List).Methods("GET")
	user.HandleFunc("/bookings/{id}", bookingHandler.Get).Methods("GET")
	user.HandleFunc("/bookings/{id}/cancel", bookingHandler.Cancel).Methods("POST")
	user.HandleFunc("/bookings/{id}/complete", bookingHandler.Complete).Methods("POST")

	// Owner endpoints
	owner := apiRouter.PathPrefix("/owner").Subrouter()
	owner.Use(auth.Middleware(cfg.JWTSecret), auth.RequireRole(db.RoleOwner))
	owner.HandleFunc("/dashboard", ownerHandler.Dashboard).Methods("GET")
	owner.HandleFunc("/parking-locations", locationHandler.Create).Methods("POST")
	owner.HandleFunc("/parking-locations", locationHandler.ListMine).Methods("GET")
	owner.HandleFunc("/parking-locations/{id}", locationHandler.Update).Methods("PUT")
	owner.HandleFunc("/parking-locations/{id}", locationHandler.Delete).Methods("DELETE")
	owner.HandleFunc("/parking-locations/{id}/toggle-status", locationHandler.ToggleActive).Methods("PATCH")
	owner.HandleFunc("/bookings", ownerHandler.ListBookings).Methods("GET")
	owner.HandleFunc("/bookings/verify-token", bookingHandler.VerifyToken).Methods("POST")
	owner.HandleFunc("/reports/revenue", ownerHandler.Revenue).Methods("GET")

	// Admin endpoints
	admin := apiRouter.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware(cfg.JWTSecret), auth.RequireRole(db.RoleAdmin))
	admin.HandleFunc("/dashboard", adminHandler.Dashboard).Methods("GET")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/parking-locations", adminHandler.ListLocations).Methods("GET")
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/toggle-status", adminHandler.ToggleUserActive).Methods("PATCH")
	admin.HandleFunc("/reports/revenue", adminHandler.Revenue).Methods("GET")

	// Background jobs
	scheduler := cron.New()
	scheduler.AddFunc("@every 5m", jobSvc.CompleteOverdueBookings)
	scheduler.AddFunc("@hourly", jobSvc.PurgeExpiredOtps)
	scheduler.Start()
	defer scheduler.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Infow("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handlers.LoggingHandler(os.Stdout, cors(r))); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
