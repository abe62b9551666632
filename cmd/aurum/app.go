package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/config"
	"github.com/vadiminshakov/aurum/internal/clients"
	"github.com/vadiminshakov/aurum/internal/metrics"
	"github.com/vadiminshakov/aurum/internal/services/banks"
	"github.com/vadiminshakov/aurum/internal/services/gateway"
	"github.com/vadiminshakov/aurum/internal/services/order"
	"github.com/vadiminshakov/aurum/internal/services/reconciler"
	"github.com/vadiminshakov/aurum/internal/services/workflow"
	"github.com/vadiminshakov/aurum/internal/session"
	"github.com/vadiminshakov/aurum/internal/setup"
	"github.com/vadiminshakov/aurum/internal/storage/orderjournal"
	"github.com/vadiminshakov/aurum/internal/web"
)

// app holds everything a command needs.
type app struct {
	cfg      *config.Config
	l        *zap.Logger
	session  *session.Session
	backend  clients.Backend
	metrics  *metrics.Metrics
	journal  *orderjournal.Journal
	gateway  *gateway.MockGateway
	workflow *workflow.Workflow

	stopWeb context.CancelFunc
}

func newApp(cfg *config.Config, l *zap.Logger) (*app, error) {
	store, err := session.NewFileStore(cfg.Storage.SessionFile)
	if err != nil {
		return nil, err
	}
	sess := session.New(store)
	if err := sess.Restore(); err != nil {
		l.Warn("failed to restore session", zap.Error(err))
	}

	m := metrics.New(nil)

	client, err := clients.NewBackendClient(cfg.API.BaseURL, sess, l,
		clients.WithTimeout(cfg.API.Timeout),
		clients.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		clients.WithObserver(m),
	)
	if err != nil {
		return nil, err
	}
	var backend clients.Backend = client
	if cfg.Degraded.Enabled {
		backend = clients.NewDegradedBackend(client, cfg.Degraded.CacheTTL, l)
	}

	journal, err := orderjournal.Open(cfg.Storage.JournalDir, l)
	if err != nil {
		return nil, err
	}

	submitter, err := order.NewSubmitter(backend, sess, journal, m, cfg.Order.MetalType, l)
	if err != nil {
		_ = journal.Close()
		return nil, err
	}

	gw, err := gateway.New(l,
		gateway.WithSchedule(gateway.Schedule{
			Initiate: cfg.Gateway.Initiate,
			Connect:  cfg.Gateway.Connect,
			Process:  cfg.Gateway.Process,
			Verify:   cfg.Gateway.Verify,
		}),
		gateway.WithMerchantName(cfg.Gateway.MerchantName),
		gateway.WithStageHook(narrate),
		gateway.WithStageRecorder(m),
	)
	if err != nil {
		_ = journal.Close()
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		l:       l,
		session: sess,
		backend: backend,
		metrics: m,
		journal: journal,
		gateway: gw,
		workflow: workflow.New(workflow.Deps{
			Market:        backend,
			Payments:      backend,
			Banks:         banks.NewSelector(backend, sess, l),
			Submitter:     submitter,
			Gateway:       gw,
			Reconciler:    reconciler.New(backend, journal, m, l),
			Journal:       journal,
			RedirectDelay: cfg.Order.RedirectDelay,
			Logger:        l,
		}),
	}
	a.serveMetrics()
	return a, nil
}

func (a *app) serveMetrics() {
	if a.cfg.Metrics.Addr == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWeb = cancel

	srv := web.NewServer(a.cfg.Metrics.Addr, a.journal, a.metrics.Handler(), a.l)
	go func() {
		if err := srv.Start(ctx); err != nil {
			a.l.Error("metrics server stopped", zap.Error(err))
		}
	}()
}

// Close stops the metrics listener and flushes the journal.
func (a *app) Close() {
	if a.stopWeb != nil {
		a.stopWeb()
	}
	if err := a.journal.Close(); err != nil {
		a.l.Error("failed to close order journal", zap.Error(err))
	}
}

func narrate(_ string, state gateway.State, stage gateway.Stage) {
	if state == gateway.StateProcessing {
		fmt.Println(setup.RenderStage(stage))
	}
}
