package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commboard/lottery-engine/api/routes"
	"github.com/commboard/lottery-engine/internal/config"
	"github.com/commboard/lottery-engine/internal/handlers"
	"github.com/commboard/lottery-engine/internal/repositories"
	mongorepo "github.com/commboard/lottery-engine/internal/repositories/mongodb"
	"github.com/commboard/lottery-engine/internal/scheduler"
	"github.com/commboard/lottery-engine/internal/services"
	"github.com/commboard/lottery-engine/pkg/mongodb"
	"github.com/commboard/lottery-engine/pkg/notifier"
	"golang.org/x/exp/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	var lotteryRepo repositories.LotteryRepository = mongorepo.NewLotteryRepository(db)
	var packetRepo repositories.PacketRepository = mongorepo.NewPacketRepository(db)
	var entryRepo repositories.EntryRepository = mongorepo.NewEntryRepository(db)
	var winnerRepo repositories.WinnerRepository = mongorepo.NewWinnerRepository(db)
	var donationRepo repositories.DonationRepository = mongorepo.NewDonationRepository(db)
	var merchandiseRepo repositories.MerchandiseRepository = mongorepo.NewMerchandiseRepository(db)
	var notificationRepo repositories.NotificationRepository = mongorepo.NewNotificationRepository(db)
	var silenceRepo repositories.SilenceRepository = mongorepo.NewSilenceRepository(db)

	// Transports
	emailTransport := notifier.NewEmailTransport(cfg)
	inAppTransport := notifier.NewInAppTransport(cfg)

	// Services
	notificationService := services.NewNotificationService(notificationRepo, silenceRepo, lotteryRepo, packetRepo, entryRepo, emailTransport, inAppTransport)
	lotteryService := services.NewLotteryService(lotteryRepo, packetRepo, entryRepo, winnerRepo, notificationService, cfg.Lottery.Enabled)
	retentionService := services.NewRetentionService(merchandiseRepo, cfg.Lottery.RetentionWindow)
	donationService := services.NewDonationService(donationRepo, merchandiseRepo)

	// Handlers
	lotteryHandler := handlers.NewLotteryHandler(lotteryService)
	donationHandler := handlers.NewDonationHandler(donationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	handlerDeps := routes.HandlerDependencies{
		LotteryHandler:      lotteryHandler,
		DonationHandler:     donationHandler,
		NotificationHandler: notificationHandler,
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	// The scheduler only runs when the feature is enabled; disabling the
	// feature freezes all timers without touching stored state.
	if cfg.Lottery.Enabled {
		sched := scheduler.New(lotteryService, notificationService, retentionService, cfg.Scheduler)
		go sched.Run(ctx)
	} else {
		slog.Info("Lottery feature disabled, scheduler not started")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
