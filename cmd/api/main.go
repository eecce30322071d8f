package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sdfoods/restaurant-backend/api/routes"
	"github.com/sdfoods/restaurant-backend/internal/auth"
	"github.com/sdfoods/restaurant-backend/internal/bids"
	"github.com/sdfoods/restaurant-backend/internal/chat"
	"github.com/sdfoods/restaurant-backend/internal/discipline"
	"github.com/sdfoods/restaurant-backend/internal/feedback"
	"github.com/sdfoods/restaurant-backend/internal/ledger"
	"github.com/sdfoods/restaurant-backend/internal/management"
	"github.com/sdfoods/restaurant-backend/internal/menu"
	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/orders"
	"github.com/sdfoods/restaurant-backend/internal/ratings"
	"github.com/sdfoods/restaurant-backend/internal/reservations"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/internal/vip"
	"github.com/sdfoods/restaurant-backend/pkg/auth/session"
	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db"
	"github.com/sdfoods/restaurant-backend/pkg/instance"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/metrics"
	"github.com/sdfoods/restaurant-backend/pkg/migrate"
	"github.com/sdfoods/restaurant-backend/pkg/outbox"
	"github.com/sdfoods/restaurant-backend/pkg/redis"
	"github.com/sdfoods/restaurant-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	reg := prometheus.DefaultRegisterer
	domainMetrics := metrics.NewDomainMetrics(reg)

	services, err := buildServices(cfg, logg, dbClient, sessionManager, domainMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	params := services
	params.Config = cfg
	params.Logger = logg
	params.Metrics = metrics.NewHTTPMetrics(reg)
	params.Gatherer = prometheus.DefaultGatherer
	params.DB = dbClient
	params.Redis = redisClient
	params.Sessions = sessionManager

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

// buildServices wires repositories and domain services in dependency order.
func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, m *metrics.DomainMetrics) (routes.Params, error) {
	conn := dbClient.DB()

	usersRepo := users.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	menuRepo := menu.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Params{}, err
	}
	warner, err := discipline.NewEngine(usersRepo, notificationSvc, logg)
	if err != nil {
		return routes.Params{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		Users:    usersRepo,
		Sessions: sessions,
		Hasher:   security.NewHasher(cfg.Password),
		JWT:      cfg.JWT,
		Logger:   logg,
	})
	if err != nil {
		return routes.Params{}, err
	}
	usersSvc, err := users.NewService(usersRepo)
	if err != nil {
		return routes.Params{}, err
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), dbClient, emitter, notificationSvc, m)
	if err != nil {
		return routes.Params{}, err
	}
	menuSvc, err := menu.NewService(menuRepo)
	if err != nil {
		return routes.Params{}, err
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      ordersRepo,
		Tx:        dbClient,
		Menu:      menuRepo,
		Users:     usersRepo,
		Ledger:    ledgerSvc,
		Warner:    warner,
		Notifier:  notificationSvc,
		Outbox:    emitter,
		Metrics:   m,
		Logger:    logg,
		Config:    cfg.Ordering,
	})
	if err != nil {
		return routes.Params{}, err
	}
	bidsSvc, err := bids.NewService(bids.NewRepository(conn), ordersRepo, usersRepo, dbClient, notificationSvc, emitter, logg)
	if err != nil {
		return routes.Params{}, err
	}
	feedbackSvc, err := feedback.NewService(feedback.NewRepository(conn), ordersRepo, usersRepo, dbClient, warner, notificationSvc, logg)
	if err != nil {
		return routes.Params{}, err
	}
	ratingsSvc, err := ratings.NewService(ratings.NewRepository(conn), ordersRepo, feedbackSvc, dbClient)
	if err != nil {
		return routes.Params{}, err
	}

	var answerer chat.Answerer
	if cfg.FeatureFlags.ChatLLM {
		ollama, err := chat.NewOllamaAnswerer(cfg.Chat)
		if err != nil {
			// The assistant still answers from the knowledge base without a model.
			logg.Warn(context.Background(), "chat model unavailable: "+err.Error())
		} else {
			answerer = ollama
		}
	}
	chatSvc, err := chat.NewService(chat.ServiceParams{
		Repo:     chat.NewRepository(conn),
		Users:    usersRepo,
		Tx:       dbClient,
		Answerer: answerer,
		Warner:   warner,
		Metrics:  m,
		Logger:   logg,
		Config:   cfg.Chat,
	})
	if err != nil {
		return routes.Params{}, err
	}
	reservationsSvc, err := reservations.NewService(reservations.NewRepository(conn), dbClient, notificationSvc)
	if err != nil {
		return routes.Params{}, err
	}
	managementSvc, err := management.NewService(management.ServiceParams{
		Repo:       management.NewRepository(conn),
		Users:      usersRepo,
		Complaints: feedbackSvc,
		Tx:         dbClient,
		Notifier:   notificationSvc,
		Logger:     logg,
	})
	if err != nil {
		return routes.Params{}, err
	}
	vipSvc, err := vip.NewService(vip.NewRepository(conn), usersRepo, dbClient, notificationSvc)
	if err != nil {
		return routes.Params{}, err
	}

	return routes.Params{
		Auth:          authSvc,
		Users:         usersSvc,
		Ledger:        ledgerSvc,
		Menu:          menuSvc,
		Orders:        ordersSvc,
		Bids:          bidsSvc,
		Feedback:      feedbackSvc,
		Ratings:       ratingsSvc,
		Chat:          chatSvc,
		Reservations:  reservationsSvc,
		Notifications: notificationSvc,
		Management:    managementSvc,
		VIP:           vipSvc,
	}, nil
}
