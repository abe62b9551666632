// Command aurum buys and sells digital gold from the terminal.
//
// Usage:
//
//	aurum [-config aurum.yaml] <command>
//
// Commands:
//
//	setup     write a configuration file interactively
//	login     log in with an OTP sent to your mobile
//	logout    forget the saved session
//	rates     show the current gold rate
//	buy       buy gold by amount or quantity
//	sell      sell gold to a saved bank account
//	history   list transactions, optionally filtered by buy or sell
//	pending   list local orders that did not complete
//
// Settings are read from the config file and AURUM_* environment variables;
// a .env file in the working directory is loaded first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/config"
	"github.com/vadiminshakov/aurum/internal/setup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	configPath := flag.String("config", "", "path to yaml config (default "+config.DefaultPath+" if present)")
	flag.Usage = usage
	flag.Parse()

	command := flag.Arg(0)
	if command == "" || command == "help" {
		usage()
		return
	}

	if command == "setup" {
		path := *configPath
		if path == "" {
			path = config.DefaultPath
		}
		if err := setup.RunWizard(path); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}

	err = a.run(ctx, command, flag.Args()[1:])
	a.Close()
	stop()
	_ = logger.Sync()

	switch {
	case errors.Is(err, errUnknownCommand):
		usage()
		os.Exit(2)
	case err != nil:
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}
	return config.Load(path)
}

func newLogger(c config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: aurum [-config path] <setup|login|logout|rates|buy|sell|history|pending>\n\n")
	flag.PrintDefaults()
	if help, err := config.EnvHelp(); err == nil {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}
}
