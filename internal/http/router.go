package http

import (
	"time"

	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/http/handlers"
	"github.com/digitalme/backend/internal/metrics"
	"github.com/digitalme/backend/internal/middleware"
	"github.com/digitalme/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRouter mounts every route. trustHandler is nil when no root of trust
// is configured.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	m *metrics.Metrics,
	authHandler *handlers.AuthHandler,
	walletHandler *handlers.WalletHandler,
	issuerHandler *handlers.IssuerHandler,
	trustHandler *handlers.TrustHandler,
	verifyHandler *handlers.VerifyHandler,
	auditHandler *handlers.AuditHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, " + handlers.PassphraseHeader,
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Auth (public)
	api.Post("/auth/holder", authHandler.HolderAuth)
	api.Post("/auth/operator", authHandler.OperatorAuth)

	// Public contract reads
	api.Get("/issuer", issuerHandler.GetInfo)
	api.Get("/issuer/schemas/:name", issuerHandler.GetSchema)
	api.Post("/verify/offline", verifyHandler.VerifyOffline)
	if trustHandler != nil {
		api.Get("/trust", trustHandler.GetInfo)
		api.Get("/trust/issuers", trustHandler.IsTrusted)
	}

	// Everything below needs a token

	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))

	// Holder wallet
	wallet := protected.Group("/wallet", middleware.RequirePermission(rbac.PermManageWallet))
	wallet.Get("/", walletHandler.ExportWallet)
	wallet.Get("/dids", walletHandler.ListDIDs)
	wallet.Put("/", handlers.RequirePassphrase(), walletHandler.ImportWallet)
	wallet.Post("/dids", handlers.RequirePassphrase(), walletHandler.CreateDID)
	wallet.Post("/claims", handlers.RequirePassphrase(), walletHandler.AddClaim)
	wallet.Get("/claims", handlers.RequirePassphrase(), walletHandler.ListClaims)
	wallet.Get("/claims/:id", handlers.RequirePassphrase(), walletHandler.GetClaim)

	// Issuer writes
	protected.Post("/issuer/schemas", middleware.RequirePermission(rbac.PermRegisterSchema), issuerHandler.RegisterSchema)
	protected.Post("/issuer/claims", middleware.RequirePermission(rbac.PermIssueClaim), issuerHandler.IssueClaim)
	protected.Delete("/issuer/claims/:id", middleware.RequirePermission(rbac.PermRevokeClaim), issuerHandler.RevokeClaim)

	// Online verification
	protected.Post("/verify", middleware.RequirePermission(rbac.PermVerify), verifyHandler.Verify)

	// Audit trail
	protected.Get("/audit/:subject", middleware.RequirePermission(rbac.PermViewAudit), auditHandler.GetBySubject)

	// Root of trust
	if trustHandler != nil {
		protected.Post("/trust/issuers", middleware.RequirePermission(rbac.PermManageTrust), trustHandler.RegisterIssuer)
		protected.Post("/trust/issuers/deactivate", middleware.RequirePermission(rbac.PermManageTrust), trustHandler.DeactivateIssuer)
	}

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
