package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"collegeportal/internal/audit"
	"collegeportal/internal/gate"
	jwttoken "collegeportal/internal/jwt_token"
	"collegeportal/internal/platform/config"
	"collegeportal/internal/platform/httpserver"
	"collegeportal/internal/platform/logger"
	"collegeportal/internal/platform/metrics"
	"collegeportal/internal/platform/middleware"
	"collegeportal/internal/platform/otel"
	"collegeportal/internal/platform/redis"
	ratelimitmw "collegeportal/internal/ratelimit/middleware"
	ratelimitmodels "collegeportal/internal/ratelimit/models"
	"collegeportal/internal/ratelimit/store/bucket"
	"collegeportal/internal/session"
	sessionstore "collegeportal/internal/session/store"
	httptransport "collegeportal/internal/transport/http"
	"collegeportal/internal/verification"
)

const (
	clientTokenIssuer = "collegeportal"
	auditInboxSize    = 256
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portal",
		Short: "College project portal",
		Long: `Serves the college project catalog over HTTP, with per-client sessions
and ID card verification in front of restricted project details.

Configuration is read from PORTAL_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		migrateCmd(),
		checkCatalogCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "portal version %s\n", version)
			},
		},
	)
	return cmd
}

// serve wires the portal and serves until SIGINT or SIGTERM.
func serve(parent context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("tracing shutdown failed", "error", err)
		}
	}()

	mx := metrics.New(prometheus.DefaultRegisterer)

	cat, err := loadCatalog(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	slots, closeSlots, err := openSlotStore(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeSlots()

	g, gctx := errgroup.WithContext(ctx)

	publisher, closeAudit, err := startAudit(gctx, g, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	registry, err := session.DemoRegistry(bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	views, err := gate.NewViews(verification.NewMockVerifier(cfg.Verification.Latency),
		gate.WithLogger(log),
		gate.WithMetrics(mx),
		gate.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}

	sessions, err := session.NewContexts(slots, session.NewMockAuthService(registry, cfg.Session.LoginLatency),
		session.ContextsConfig{
			MaxClients: cfg.Session.MaxClients,
			IdleTTL:    cfg.Session.IdleTTL,
			OnEvict:    views.Forget,
		},
		mx,
		session.WithLogger(log),
		session.WithNotifier(session.NewLogNotifier(log)),
		session.WithAuditPublisher(publisher),
	)
	if err != nil {
		return err
	}
	g.Go(func() error {
		if err := sessions.StartCleanup(gctx, sweepInterval(cfg.Session.IdleTTL)); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	handlerOpts := []httptransport.Option{
		httptransport.WithLogger(log),
		httptransport.WithMetrics(mx),
		httptransport.WithMaxArtifactBytes(cfg.Verification.MaxArtifactBytes),
	}
	if redisClient != nil {
		handlerOpts = append(handlerOpts, httptransport.WithHealthCheck("redis", redisClient.Health))
	}
	if db, ok := slots.(*sessionstore.SQLite); ok {
		handlerOpts = append(handlerOpts, httptransport.WithHealthCheck("slots", db.Health))
	}
	handlerOpts = append(handlerOpts, httptransport.WithRateLimiter(newRateLimiter(cfg.RateLimit, redisClient, log)))
	handler, err := httptransport.New(cat, sessions, views, handlerOpts...)
	if err != nil {
		return err
	}
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Logger:   log,
		Metrics:  mx,
		Gatherer: prometheus.DefaultGatherer,
		Tokens:   jwttoken.NewJWTService(cfg.Server.ClientTokenKey, clientTokenIssuer, cfg.Server.ClientTokenTTL),
		Cookie: middleware.ClientCookieOptions{
			TTL:    cfg.Server.ClientTokenTTL,
			Secure: cfg.Server.SecureCookies,
		},
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: proxies,
	})

	srv := httpserver.New(cfg.Server, router)

	g.Go(func() error {
		log.Info("starting college portal", "addr", cfg.Server.Addr, "slot_backend", cfg.Session.SlotBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// sweepInterval runs the idle sweep twice per TTL, between a second and a
// minute.
func sweepInterval(idleTTL time.Duration) time.Duration {
	return max(min(idleTTL/2, time.Minute), time.Second)
}

func openSlotStore(ctx context.Context, cfg config.Config, redisClient *redis.Client) (session.SlotStore, func(), error) {
	noop := func() {}
	switch cfg.Session.SlotBackend {
	case config.SlotBackendFile:
		slots, err := sessionstore.NewFile(cfg.Session.SlotDir)
		if err != nil {
			return nil, nil, err
		}
		return slots, noop, nil
	case config.SlotBackendSQLite:
		slots, err := sessionstore.OpenSQLite(ctx, cfg.Session.SlotDB)
		if err != nil {
			return nil, nil, err
		}
		return slots, func() { _ = slots.Close() }, nil
	case config.SlotBackendRedis:
		if redisClient == nil {
			return nil, nil, errors.New("redis slot backend selected but no redis client configured")
		}
		return sessionstore.NewRedis(redisClient, cfg.Server.ClientTokenTTL), noop, nil
	default:
		return sessionstore.NewInMemory(), noop, nil
	}
}

// newRateLimiter counts in Redis when it is available so replicas share
// budgets, and in process memory otherwise.
func newRateLimiter(cfg config.RateLimit, redisClient *redis.Client, log *slog.Logger) *ratelimitmw.Middleware {
	var store ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		store = bucket.NewRedisBucketStore(redisClient)
	}
	return ratelimitmw.New(store, log,
		ratelimitmw.WithDisabled(cfg.Disabled),
		ratelimitmw.WithPolicy(ratelimitmodels.ClassAuth, ratelimitmodels.Policy{Limit: cfg.LoginLimit, Window: cfg.LoginWindow}),
		ratelimitmw.WithPolicy(ratelimitmodels.ClassVerification, ratelimitmodels.Policy{Limit: cfg.VerifyLimit, Window: cfg.VerifyWindow}),
	)
}

// startAudit keeps audit events in memory and, when brokers are configured,
// forwards them to Kafka from a worker in g.
func startAudit(ctx context.Context, g *errgroup.Group, cfg config.Audit, log *slog.Logger) (*audit.Publisher, func(), error) {
	opts := []audit.PublisherOption{audit.WithLogger(log)}
	closeFn := func() {}

	if len(cfg.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.Brokers, cfg.Topic)
		if err != nil {
			return nil, nil, fmt.Errorf("start kafka audit sink: %w", err)
		}
		inbox := make(chan audit.Event, auditInboxSize)
		opts = append(opts, audit.WithForwarding(inbox))
		worker := audit.NewWorker(sink, inbox, log)
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		closeFn = func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sink.Close(flushCtx); err != nil {
				log.Error("failed to flush audit sink", "error", err)
			}
		}
		log.Info("forwarding audit events to kafka", "topic", cfg.Topic)
	}

	return audit.NewPublisher(audit.NewInMemoryStore(), opts...), closeFn, nil
}
