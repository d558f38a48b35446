package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/focus-tracker/external/riot"
	"github.com/riskibarqy/focus-tracker/internal/config"
	"github.com/riskibarqy/focus-tracker/internal/infrastructure/notify"
	"github.com/riskibarqy/focus-tracker/internal/infrastructure/notify/telegram"
	"github.com/riskibarqy/focus-tracker/internal/interfaces/httpapi"
	"github.com/riskibarqy/focus-tracker/internal/interfaces/telegrambot"
	"github.com/riskibarqy/focus-tracker/internal/observability"
	idgen "github.com/riskibarqy/focus-tracker/internal/platform/id"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/platform/resilience"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// App owns the long-running parts of the tracker: the HTTP server, the poll
// scheduler and the optional chat command loop.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	server    *http.Server
	scheduler *usecase.PollScheduler
	bot       *telegrambot.Bot
	db        *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repo, db, err := openGroupRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		pollMetrics     usecase.PollMetrics
		upstreamMetrics riot.Metrics
		requestObserver httpapi.RequestObserver
		metricsHandler  http.Handler
	)
	if cfg.MetricsEnabled {
		metrics := observability.NewMetrics(observability.WithRuntimeCollectors())
		pollMetrics = metrics
		upstreamMetrics = metrics
		requestObserver = metrics
		metricsHandler = metrics.Handler()
	}

	provider := riot.NewClient(riot.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.RiotTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURLTemplate: cfg.RiotBaseURLTemplate,
		APIKey:          cfg.RiotAPIKey,
		Timeout:         cfg.RiotTimeout,
		MaxRetries:      cfg.RiotMaxRetries,
		RateLimit: resilience.RateLimitConfig{
			Requests: cfg.RiotRateLimit,
			Window:   cfg.RiotRateWindow,
			Burst:    cfg.RiotRateBurst,
		},
		AccountCacheTTL: cfg.RiotAccountCacheTTL,
		Logger:          logger.Named("riot"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.RiotCircuitEnabled,
			FailureThreshold: cfg.RiotCircuitFailureCount,
			OpenTimeout:      cfg.RiotCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.RiotCircuitHalfOpenMaxReq,
		},
		Metrics: upstreamMetrics,
	})
	if !provider.Configured() {
		logger.Warn("RIOT_API_KEY is empty, tracking and polling will fail until it is set")
	}

	var (
		notifier usecase.Notifier = notify.NewLogNotifier(logger.Named("notify"))
		botAPI   *tgbotapi.BotAPI
	)
	if cfg.TelegramEnabled {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			closeDB(db, logger)
			return nil, fmt.Errorf("create telegram bot client: %w", err)
		}
		logger.Info("telegram notifier enabled", "bot", botAPI.Self.UserName)
		notifier = telegram.NewNotifier(botAPI, telegram.Config{
			SendInterval: cfg.TelegramSendInterval,
			Logger:       logger.Named("telegram"),
		})
	}

	locks := usecase.NewGroupLocker()
	pollSvc := usecase.NewPollService(
		repo,
		provider,
		notifier,
		idgen.NewUUIDGenerator(),
		locks,
		usecase.PollConfig{
			BatchSize:       cfg.PollBatchSize,
			HistorySize:     cfg.PollHistorySize,
			MatchDelay:      cfg.PollMatchDelay,
			EntityDelay:     cfg.PollEntityDelay,
			GroupDelay:      cfg.PollGroupDelay,
			RateLimitNotice: cfg.PollRateLimitNotice,
		},
		pollMetrics,
		logger.Named("poll"),
	)
	trackingSvc := usecase.NewTrackingService(
		repo,
		provider,
		notifier,
		locks,
		usecase.TrackingConfig{
			BatchSize:     cfg.PollBatchSize,
			HistorySize:   cfg.PollHistorySize,
			MatchDelay:    cfg.PollMatchDelay,
			DefaultRegion: cfg.TrackDefaultRegion,
		},
		logger.Named("tracking"),
	)

	a := &App{cfg: cfg, logger: logger, db: db}

	if cfg.PollEnabled {
		a.scheduler, err = usecase.NewPollScheduler(pollSvc, usecase.PollSchedulerConfig{
			Interval:     cfg.PollInterval,
			InitialDelay: cfg.PollInitialDelay,
		}, logger.Named("scheduler"))
		if err != nil {
			closeDB(db, logger)
			return nil, err
		}
	}
	if botAPI != nil && cfg.TelegramCommandsEnabled {
		a.bot = telegrambot.NewBot(botAPI, trackingSvc, logger)
	}

	handler := httpapi.NewHandler(trackingSvc, pollSvc, logger.Named("http"))
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		MetricsHandler:     metricsHandler,
		Observer:           requestObserver,
	}, logger)

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if a.server.Addr == "" {
		closeDB(db, logger)
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return a, nil
}

// Run blocks until ctx is canceled or one of the components fails; a failure
// cancels the others.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(a.serveHTTP)
	if a.scheduler != nil {
		p.Go(a.scheduler.Run)
	} else {
		a.logger.Info("poll scheduler disabled", "reason", "POLL_ENABLED=false")
	}
	if a.bot != nil {
		p.Go(a.bot.Run)
	}

	return p.Wait()
}

func (a *App) Close() {
	closeDB(a.db, a.logger)
}

func (a *App) serveHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}
