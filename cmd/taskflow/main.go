package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskflow/internal/config"
	"taskflow/internal/httpapi"
	"taskflow/internal/notify"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[info] no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	recurrenceSvc := service.NewRecurrenceService(taskRepo, cfg.HorizonDays)
	taskSvc := service.NewTaskService(taskRepo, recurrenceSvc)
	seriesSvc := service.NewSeriesService(taskRepo)
	reminderSvc := service.NewReminderService(taskRepo)

	var notifier *notify.Notifier
	if cfg.TelegramToken != "" {
		notifier, err = notify.New(cfg.TelegramToken, userRepo, reminderSvc)
		if err != nil {
			log.Fatalf("notifier: %v", err)
		}
	} else {
		log.Println("[info] TELEGRAM_TOKEN not set, summaries disabled")
	}

	scheduler := service.NewScheduler(time.Local)
	if _, err := scheduler.Daily(cfg.SummaryTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if n, err := recurrenceSvc.ExpandAll(jobCtx); err != nil {
			log.Printf("[warn] re-expansion: %v", err)
		} else if n > 0 {
			log.Printf("[info] re-expansion generated %d occurrences", n)
		}

		if notifier != nil {
			if err := notifier.SendDailySummaries(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[warn] daily summaries: %v", err)
			}
		}
	}); err != nil {
		log.Fatalf("schedule daily job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	var sender httpapi.SummarySender
	if notifier != nil {
		sender = notifier
	}
	api := httpapi.NewServer(userRepo, taskSvc, seriesSvc, sender, cfg.JWTSecret, cfg.TokenTTL)
	defer api.Close()
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Routes(),
	}

	go func() {
		log.Printf("[info] listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[info] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("[info] shutdown complete")
}
