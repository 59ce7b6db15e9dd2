package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/utkabotron/vibe/internal/cache"
	"github.com/utkabotron/vibe/internal/config"
	"github.com/utkabotron/vibe/internal/report"
	"github.com/utkabotron/vibe/internal/server"
	"github.com/utkabotron/vibe/internal/session"
	"github.com/utkabotron/vibe/internal/sheets"
	"github.com/utkabotron/vibe/internal/telegram"
	"github.com/utkabotron/vibe/internal/wizard"
)

var devMode = flag.Bool("dev", false, "development mode")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *devMode {
		cfg.Server.DevMode = true
	}

	client := sheets.NewWorkbook(cfg.Sheets.WorkbookPath)
	refs := cache.New(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The bot is useless without reference data, so the first load is
	// fatal. Later refresh failures only serve stale data.
	if err := refs.Refresh(ctx); err != nil {
		log.Fatalf("initial reference load: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cache.RunPeriodicRefresh(ctx, refs, time.Duration(cfg.Cache.RefreshIntervalMinutes)*time.Minute)
	}()

	sessions := session.NewStore()
	reports := report.NewSubmitter(client)
	engine := wizard.NewEngine(refs, sessions, reports, cfg.Telegram.RegistrationCode)

	bot, err := telegram.NewBot(cfg.Telegram.Token, engine, sessions,
		time.Duration(cfg.Bot.IdleTimeoutMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bot.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("bot stopped: %v", err)
		}
	}()

	srv := server.NewServer(cfg, refs, reports, bot)
	go func() {
		log.Printf("miniapp server listening on :%d", cfg.Server.Port)
		if err := srv.Run(cfg.Server.Port); err != nil {
			log.Fatalf("miniapp server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	cancel()
	wg.Wait()
}
