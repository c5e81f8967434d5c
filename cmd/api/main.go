package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/db"
	"github.com/digitalme/backend/internal/events"
	apphttp "github.com/digitalme/backend/internal/http"
	"github.com/digitalme/backend/internal/http/handlers"
	"github.com/digitalme/backend/internal/keys"
	"github.com/digitalme/backend/internal/metrics"
	"github.com/digitalme/backend/internal/repositories"
	"github.com/digitalme/backend/internal/services"
	"github.com/digitalme/backend/internal/verifier"
	"github.com/digitalme/backend/migrations"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	m := metrics.New()
	k := keys.NewEd25519()

	// Chain
	rpc := chain.NewRPCClient(cfg.NeoRPCURL, cfg.RPCTimeout, m, log)
	balances := chain.NewNeoscanClient(cfg.NeoscanURL, cfg.RPCTimeout, m, log)
	base := contracts.NewBase(rpc, balances, k, cfg.DIDNetwork, m)

	// Repositories
	walletRepo := repositories.NewWalletRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	locker := services.NewTxLock(rdb, cfg.TxLockTTL, log)
	walletService := services.NewWalletService(walletRepo, auditRepo, locker, publisher, k, cfg.DIDNetwork, cfg.Scrypt, log)
	issuerService := services.NewIssuerService(contracts.NewIssuerContract(cfg.IssuerScriptHash, base), k, cfg.IssuerPrivateKey, locker, auditRepo, publisher, log)
	verificationService := services.NewVerificationService(verifier.NewVerifier(cfg.IssuerScriptHash, base, k), cfg.RotScriptHash, log)

	var trustHandler *handlers.TrustHandler
	if cfg.RotScriptHash != "" {
		trustService := services.NewTrustService(contracts.NewRootOfTrust(cfg.RotScriptHash, base), k, cfg.RotPrivateKey, locker, auditRepo, publisher, log)
		trustHandler = handlers.NewTrustHandler(trustService, log)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(walletService, cfg, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	issuerHandler := handlers.NewIssuerHandler(issuerService, log)
	verifyHandler := handlers.NewVerifyHandler(verificationService, log)
	auditHandler := handlers.NewAuditHandler(auditRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, walletRepo, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, m, authHandler, walletHandler, issuerHandler, trustHandler, verifyHandler, auditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr), zap.String("network", string(cfg.DIDNetwork)))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
