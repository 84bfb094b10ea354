package main

import (
	"context"
	"os/signal"
	"syscall"

	"kursBot/internal/bot"
	"kursBot/internal/browser"
	"kursBot/internal/config"
	"kursBot/internal/converter"
	"kursBot/internal/database"
	"kursBot/internal/logger"
	"kursBot/internal/migrations"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := migrations.Run(cfg, log); err != nil {
		log.Fatal("Ошибка миграций", zap.Error(err))
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal("Ошибка подключения к БД", zap.Error(err))
	}
	defer db.Close(log)

	users := database.NewUserRepository(db.DB)
	wallets := database.NewWalletRepository(db.DB)
	orders := database.NewOrderRepository(db.DB)

	mgr := browser.NewManager(cfg.Browser, log)
	conv := converter.NewService(mgr, log)

	tg, err := bot.New(cfg.Telegram.Token, log, conv, users, wallets, orders)
	if err != nil {
		log.Fatal("Ошибка инициализации бота", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tg.Run(ctx); err != nil {
		log.Fatal("Бот завершился с ошибкой", zap.Error(err))
	}
}
