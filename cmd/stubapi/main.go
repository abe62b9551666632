// Command stubapi serves an in-memory gold backend for local runs.
//
//	stubapi -addr :8080 -holding 0.016 -require-auth
//
// Every mobile number logs in with OTP 123456.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/stubapi"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	holding := flag.String("holding", "0", "initial gold balance in grams")
	requireAuth := flag.Bool("require-auth", false, "reject user endpoints without a bearer token")
	rateLimited := flag.Bool("rate-limited", false, "reject buy and sell orders with a rate limit error")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	grams, err := decimal.NewFromString(*holding)
	if err != nil {
		logger.Fatal("invalid -holding", zap.String("holding", *holding), zap.Error(err))
	}

	opts := []stubapi.Option{stubapi.WithHolding(grams)}
	if *requireAuth {
		opts = append(opts, stubapi.WithRequireAuth())
	}
	stub, err := stubapi.New(logger, opts...)
	if err != nil {
		logger.Fatal("failed to create stub", zap.Error(err))
	}
	stub.ForceRateLimit(*rateLimited)

	srv := &http.Server{Addr: *addr, Handler: stub.Handler(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("stub backend listening", zap.String("addr", *addr), zap.String("otp", stubapi.DefaultOTP))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
