package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mvoronin/finbudget/internal/config"
	"github.com/mvoronin/finbudget/internal/handler"
	"github.com/mvoronin/finbudget/internal/integrations/cbr"
	"github.com/mvoronin/finbudget/internal/notify"
	"github.com/mvoronin/finbudget/internal/repository"
	"github.com/mvoronin/finbudget/internal/service"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	cbrClient := cbr.NewClient(cfg, logger)
	svc := service.NewService(repo, logger, cfg, cbrClient)
	h := handler.NewHandler(svc, cbrClient)

	// Daily payment reminders
	if cfg.RemindersEnabled {
		sender := notify.NewSender(cfg, logger)
		reminder := notify.NewReminder(repo, sender, logger, cfg.ReminderDays)
		c := cron.New()
		if _, err := c.AddFunc("0 9 * * *", func() {
			reminder.Run(context.Background())
		}); err != nil {
			logger.Fatalf("Failed to schedule reminder job: %v", err)
		}
		c.Start()
		defer c.Stop()
	}

	// Setup router
	r := mux.NewRouter()
	h.Register(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
