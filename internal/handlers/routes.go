package handlers

import (
	"log/slog"
	"net/http"

	"github.com/atlasmarket/payments/internal/cache"
	"github.com/atlasmarket/payments/internal/config"
	"github.com/atlasmarket/payments/internal/db"
	"github.com/atlasmarket/payments/internal/gateway"
	"github.com/atlasmarket/payments/internal/middleware"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/repository"
	"github.com/atlasmarket/payments/internal/service"
	"github.com/redis/go-redis/v9"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(
	database *db.DB,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	gateways := gateway.NewRegistry(
		gateway.NewStripe(cfg.Stripe, logger),
		gateway.NewFlutterwave(cfg.Flutterwave, logger),
	)

	queryCache := cache.New(redisClient, logger)

	initiationService := service.NewInitiationService(database, gateways, queryCache, logger)
	reconciliationService := service.NewReconciliationService(database, queryCache, logger)
	queryService := service.NewQueryService(database, queryCache, cfg.Redis.CacheTTL, logger)

	handler := NewHandler(initiationService, reconciliationService, queryService, gateways, database, logger)

	authenticate := middleware.Authenticate(cfg.Auth.JWTSecret)
	requireBuyer := middleware.RequireRole(models.RoleBuyer)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to Marketplace Payments API",
			"version": "1.0.0",
		})
	})

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Webhooks authenticate by signature, not by bearer token.
	mux.HandleFunc("POST /api/v1/webhooks/{provider}", handler.HandleWebhook)

	mux.Handle("POST /api/v1/payments",
		authenticate(requireBuyer(http.HandlerFunc(handler.CreatePayment))))
	mux.Handle("GET /api/v1/transactions",
		authenticate(http.HandlerFunc(handler.ListTransactions)))
	mux.Handle("GET /api/v1/transactions/{id}",
		authenticate(http.HandlerFunc(handler.GetTransaction)))
	mux.Handle("POST /api/v1/transactions/{id}/refund",
		authenticate(requireAdmin(http.HandlerFunc(handler.RefundTransaction))))

	idempotencyRepo := repository.NewIdempotencyRepository(database)
	return middleware.Idempotency(idempotencyRepo, logger)(mux)
}
