// Package main Simple IAP API
//
// @title           Simple IAP API
// @version         1.0
// @description     Покупка и проверка единственной автопродлеваемой подписки
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
// @BasePath  /api/v1
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/simple-iap/internal/app/iapclient"
	"github.com/magabrotheeeer/simple-iap/internal/config"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting iap-client", slog.String("env", cfg.Env), slog.String("product_id", cfg.ProductID))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := iapclient.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("iap-client stopped gracefully")
}
