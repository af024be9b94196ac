package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"AlphaPull/internal/handler/api"
	"AlphaPull/internal/services/scoring"
	"AlphaPull/internal/usecase"
	pkgch "AlphaPull/pkg/clickhouse"
	"AlphaPull/pkg/config"
	xhttp "AlphaPull/pkg/http"
	pkgkafka "AlphaPull/pkg/kafka"
	applogger "AlphaPull/pkg/logger"
	pkgqueue "AlphaPull/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.InsightCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	queue       *pkgqueue.RedisQueue
	poller      *scoring.ScorePoller
	insights    *api.InsightsEchoHandler
	markets     *api.MarketsHandler
	httpServer  *xhttp.Server
	appLogger   *applogger.Logger
	InsightProc *usecase.InsightProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.InsightCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHandlers injects the HTTP route handlers.
func (a *App) SetHandlers(insights *api.InsightsEchoHandler, markets *api.MarketsHandler) {
	a.insights = insights
	a.markets = markets
}

// SetQueue injects the score update queue.
func (a *App) SetQueue(q *pkgqueue.RedisQueue) { a.queue = q }

// SetPoller injects the score poller.
func (a *App) SetPoller(p *scoring.ScorePoller) { a.poller = p }

// SetAppLogger injects the shared application logger.
func (a *App) SetAppLogger(l *applogger.Logger) { a.appLogger = l }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server using pkg/http and register routes via handlers
	a.httpServer = xhttp.NewServer(a.insights,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	)
	if a.markets != nil {
		a.markets.RegisterRoutes(a.httpServer.Echo())
	}

	// Start collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))
	}

	// Start consumer if configured. The dual-write backend stores rows
	// directly, so draining the topic here would re-store every record.
	if a.consumer != nil && a.kh != nil && a.cfg.Backend.Type != "both" {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start score update queue workers
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
		} else {
			l.Info("score queue started", applogger.Int("workers", a.cfg.Queue.Workers))
		}
	}

	// Start score poller
	if a.poller != nil {
		a.poller.Start(ctx)
		l.Info("score poller started", applogger.String("scorer", a.cfg.Scoring.ServiceURL))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Stop score poller
	if a.poller != nil {
		a.poller.Stop()
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush aggregated error logs while the producer is still up
	if a.appLogger != nil {
		a.appLogger.RemoveCollector()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/store)
	if a.InsightProc != nil {
		a.InsightProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
