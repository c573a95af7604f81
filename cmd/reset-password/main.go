package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new password (at least 8 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	defer log.Sync()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	auth := service.NewAuthService(repository.NewUserRepo(db), jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL), log)
	if err := auth.ResetPassword(context.Background(), *email, *password); err != nil {
		log.Fatal("password reset failed", zap.String("email", *email), zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email))
}
