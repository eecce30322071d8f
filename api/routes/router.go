package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sdfoods/restaurant-backend/api/controllers"
	"github.com/sdfoods/restaurant-backend/api/middleware"
	"github.com/sdfoods/restaurant-backend/internal/auth"
	"github.com/sdfoods/restaurant-backend/internal/bids"
	"github.com/sdfoods/restaurant-backend/internal/chat"
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
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/metrics"
	"github.com/sdfoods/restaurant-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer depends on.
type RedisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Params carries everything the router wires into handlers. Nil services
// produce INTERNAL responses rather than panics.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	DB       db.Pinger
	Redis    RedisStore
	BigQuery db.Pinger
	Sessions session.Checker

	Auth          auth.Service
	Users         users.Service
	Ledger        ledger.Service
	Menu          menu.Service
	Orders        orders.Service
	Bids          bids.Service
	Feedback      feedback.Service
	Ratings       ratings.Service
	Chat          chat.Service
	Reservations  reservations.Service
	Notifications notifications.Service
	Management    management.Service
	VIP           vip.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentityLimit,
	)

	checks := []controllers.ReadinessCheck{}
	if p.DB != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "db", Ping: p.DB.Ping})
	}
	if p.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Ping: p.Redis.Ping})
	}
	if p.BigQuery != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "bigquery", Ping: p.BigQuery.Ping})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	authed := middleware.Auth(cfg.JWT, p.Sessions, logg)
	optional := middleware.OptionalAuth(cfg.JWT, p.Sessions, logg)
	staff := middleware.RequireStaff(logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(p.Auth, logg))
		})

		// Browsing the menu and asking the assistant do not need an account.
		r.Group(func(r chi.Router) {
			r.Use(optional)
			r.Get("/menu", controllers.ListMenu(p.Menu, logg))
			r.Get("/menu/categories", controllers.MenuCategories(p.Menu, logg))
			r.Get("/menu/{itemId}", controllers.GetMenuItem(p.Menu, logg))
			r.Get("/menu/{itemId}/score", controllers.DishScore(p.Ratings, logg))
			r.Post("/chat/ask", controllers.ChatAsk(p.Chat, logg))
			r.Post("/chat/rate", controllers.ChatRate(p.Chat, logg))
			r.Get("/reservations/tables", controllers.ListTables(p.Reservations, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Use(middleware.Idempotency(p.Redis, logg))

			r.Get("/users/me", controllers.CurrentUser(p.Users, logg))

			r.Post("/wallet/deposit", controllers.WalletDeposit(p.Ledger, logg))
			r.Get("/wallet/balance", controllers.WalletBalance(p.Ledger, logg))

			r.Post("/orders", controllers.PlaceOrder(p.Orders, logg))
			r.Get("/orders/history", controllers.OrderHistory(p.Orders, cfg.Ordering.HistoryPageSize, logg))
			r.Get("/orders/{orderId}", controllers.GetOrder(p.Orders, logg))
			r.Post("/orders/{orderId}/rating", controllers.RateOrder(p.Ratings, logg))

			r.Post("/feedback/submit", controllers.SubmitFeedback(p.Feedback, logg))
			r.Get("/feedback/sent", controllers.SentFeedback(p.Feedback, logg))
			r.Get("/feedback/received", controllers.ReceivedFeedback(p.Feedback, logg))
			r.Post("/feedback/{feedbackId}/dispute", controllers.DisputeFeedback(p.Feedback, logg))

			r.Get("/chat/history", controllers.ChatHistory(p.Chat, logg))
			r.Post("/chat/knowledge", controllers.ChatAddKnowledge(p.Chat, logg))

			r.Get("/reservations", controllers.ListReservations(p.Reservations, logg))
			r.Post("/reservations", controllers.CreateReservation(p.Reservations, logg))
			r.Post("/reservations/{reservationId}/cancel", controllers.CancelReservation(p.Reservations, logg))

			r.Get("/notifications", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))

			r.Post("/vip/request", controllers.RequestVIP(p.VIP, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleChef, enums.UserRoleManager))
				r.Get("/chef/orders", controllers.ChefQueue(p.Orders, logg))
				r.Post("/chef/orders/{orderId}/accept", controllers.ChefAccept(p.Orders, logg))
				r.Post("/chef/orders/{orderId}/complete", controllers.ChefComplete(p.Orders, logg))
				r.Post("/chef/orders/{orderId}/reject", controllers.ChefReject(p.Orders, logg))

				r.Post("/menu", controllers.CreateMenuItem(p.Menu, logg))
				r.Put("/menu/{itemId}", controllers.UpdateMenuItem(p.Menu, logg))
				r.Delete("/menu/{itemId}", controllers.DeleteMenuItem(p.Menu, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleDriver, enums.UserRoleManager))
				r.Get("/delivery/profile", controllers.DriverProfile(p.Users, logg))
				r.Get("/delivery/orders/available", controllers.AvailableOrders(p.Bids, logg))
				r.Get("/delivery/orders/assigned", controllers.DriverAssignedOrders(p.Orders, logg))
				r.Post("/delivery/orders/{orderId}/bid", controllers.PlaceBid(p.Bids, logg))
				r.Post("/delivery/orders/{orderId}/pickup", controllers.DriverPickup(p.Orders, logg))
				r.Post("/delivery/orders/{orderId}/deliver", controllers.DriverDeliver(p.Orders, logg))
			})

			r.Route("/manager", func(r chi.Router) {
				r.Use(staff)

				r.Get("/stats", controllers.ManagerStats(p.Management, logg))

				r.Get("/bids/pending", controllers.PendingBids(p.Bids, logg))
				r.Post("/bids/{bidId}/approve", controllers.ApproveBid(p.Bids, logg))
				r.Post("/bids/{bidId}/reject", controllers.RejectBid(p.Bids, logg))

				r.Get("/feedback", controllers.AllFeedback(p.Feedback, logg))
				r.Post("/feedback/{feedbackId}/approve", controllers.ApproveFeedback(p.Feedback, logg))
				r.Post("/feedback/{feedbackId}/dismiss", controllers.DismissFeedback(p.Feedback, logg))

				r.Get("/employees", controllers.ManagerEmployees(p.Management, logg))
				r.Post("/employees/{employeeId}/promote", controllers.PromoteEmployee(p.Management, logg))
				r.Post("/employees/{employeeId}/demote", controllers.DemoteEmployee(p.Management, logg))
				r.Post("/employees/{employeeId}/fire", controllers.FireEmployee(p.Management, logg))
				r.Get("/customers", controllers.ManagerCustomers(p.Management, logg))
				r.Post("/customers/{customerId}/deregister", controllers.DeregisterCustomer(p.Management, logg))

				r.Get("/vip/requests", controllers.PendingVIPRequests(p.VIP, logg))
				r.Post("/vip/{requestId}/approve", controllers.ApproveVIP(p.VIP, logg))
				r.Post("/vip/{requestId}/reject", controllers.RejectVIP(p.VIP, logg))
				r.Post("/vip/customers/{customerId}/demote", controllers.DemoteVIP(p.VIP, logg))

				r.Get("/knowledge/pending", controllers.PendingKnowledge(p.Chat, logg))
				r.Get("/knowledge/flagged", controllers.FlaggedChatRatings(p.Chat, logg))
				r.Post("/knowledge/{entryId}/approve", controllers.ApproveKnowledge(p.Chat, logg))
				r.Post("/knowledge/{entryId}/reject", controllers.RejectKnowledge(p.Chat, logg))
				r.Post("/knowledge/ratings/{ratingId}/review", controllers.ReviewFlaggedRating(p.Chat, logg))
			})
		})
	})

	return r
}
