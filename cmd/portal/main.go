package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/MemberPortal/app/controllers"
	"github.com/ManuelReschke/MemberPortal/app/repository"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/cache"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/config"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/database"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/env"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/mail"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/middleware"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/notify"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/router"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/scheduler"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/seed"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/session"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/sms"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/statistics"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

// Application bundles the HTTP server with its background workers.
type Application struct {
	App        *fiber.App
	Config     *config.Config
	dispatcher *notify.Dispatcher
	scheduler  *scheduler.Scheduler
	counter    *counter.ViewCounter
}

func main() {
	a, err := NewApplication()
	if err != nil {
		log.Fatalf("[Startup] %v", err)
	}

	go func() {
		if err := a.App.Listen(a.Config.ListenAddr()); err != nil {
			log.Fatalf("[Startup] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Shutdown()
}

func NewApplication() (*Application, error) {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.SetupDatabase(cfg)
	if err != nil {
		return nil, err
	}
	factory := repository.InitializeFactory(db)
	repos := factory.GetRepositories()

	cacheClient := cache.SetupCache(cfg)
	sessions := session.NewSessionStore(cfg, cacheClient)

	var mailer notify.Mailer
	if m := mail.NewSMTPMailer(cfg); m.Configured() {
		mailer = m
	} else {
		log.Info("[Notify] SMTP_HOST not set, email delivery disabled")
	}
	var smsSender notify.SMSSender
	if c := sms.NewClient(cfg.SMSAPIURL, cfg.SMSUsername, cfg.SMSPassword, cfg.SMSSender); c.Configured() {
		smsSender = c
	} else {
		log.Info("[Notify] SMS gateway not configured, SMS delivery disabled")
	}

	dispatcher := notify.NewDispatcher(repos, mailer, smsSender, notify.Options{
		Organization: cfg.AppName,
		PublicURL:    cfg.PublicURL,
		Workers:      cfg.NotifyWorkers,
		SendDelay:    cfg.NotifySendDelay,
	})
	dispatcher.Start()

	stats := statistics.NewService(repos.Stats, cacheClient)
	views := counter.NewViewCounter(cacheClient, repos.News)
	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRate:      cfg.LoginRate,
		IPBurst:     cfg.LoginBurst,
		MaxFailures: cfg.LoginMaxFailures,
		Lockout:     cfg.LoginLockout,
	})

	var sch *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sch = scheduler.New(scheduler.Jobs{
			Reminder: dispatcher,
			Counter:  views,
			Events:   repos.Event,
			Stats:    stats,
			Login:    login,
		})
		if err := sch.Register(scheduler.Schedules{
			Reminders:    cfg.ReminderSchedule,
			CounterFlush: cfg.CounterFlushSchedule,
			EventClose:   cfg.EventCloseSchedule,
			Cleanup:      cfg.LoginCleanupSchedule,
		}); err != nil {
			dispatcher.Stop()
			return nil, err
		}
		sch.Start()
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:           cfg.AppName,
		ErrorHandler:      controllers.ErrorHandler,
		BodyLimit:         1 << 20,
		EnablePrintRoutes: cfg.IsDev(),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowCredentials: cfg.AllowedOrigins() != "*",
	}))

	// ROUTER
	err = router.InstallRouter(app, router.Options{
		Config: cfg,
		Deps: controllers.Dependencies{
			Factory:  factory,
			Notifier: dispatcher,
			Stats:    stats,
			Views:    views,
			Login:    login,
		},
		Sessions: sessions,
		Login:    login,
		Cache:    cacheClient,
		Version:  version,
	})
	if err != nil {
		dispatcher.Stop()
		return nil, err
	}

	if cfg.SeedUsers {
		if n, err := seed.Users(repos.User); err != nil {
			log.Errorf("[Seed] %v", err)
		} else if n > 0 {
			stats.Invalidate(context.Background())
		}
	}

	return &Application{
		App:        app,
		Config:     cfg,
		dispatcher: dispatcher,
		scheduler:  sch,
		counter:    views,
	}, nil
}

// Shutdown stops accepting requests and flushes buffered counters. Pending
// notification deliveries are dropped.
func (a *Application) Shutdown() {
	log.Info("[Shutdown] stopping server")
	if err := a.App.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorf("[Shutdown] %v", err)
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if n, err := a.counter.Flush(ctx); err != nil {
		log.Errorf("[Shutdown] flush view counters: %v", err)
	} else if n > 0 {
		log.Infof("[Shutdown] flushed views of %d news items", n)
	}

	a.dispatcher.Stop()
	if err := cache.Close(); err != nil {
		log.Errorf("[Shutdown] close cache: %v", err)
	}
	if db := database.GetDB(); db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log.Info("[Shutdown] done")
}
