package handlers

import (
	"github.com/digitalme/backend/internal/auth"
	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/rbac"
	"github.com/digitalme/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	walletService *services.WalletService
	cfg           *config.Config
	log           *zap.Logger
}

func NewAuthHandler(walletService *services.WalletService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{walletService: walletService, cfg: cfg, log: log}
}

// HolderAuth registers a holder or logs one in by opening their wallet.
// POST /auth/holder
func (h *AuthHandler) HolderAuth(c *fiber.Ctx) error {
	var req dto.HolderAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Passphrase == "" {
		return badRequest(c, "passphrase is required")
	}

	var (
		holderID uuid.UUID
		newDID   string
		err      error
	)
	if req.HolderID == "" {
		holderID, newDID, err = h.walletService.Register(c.Context(), req.Name, req.Passphrase)
	} else {
		holderID, err = uuid.Parse(req.HolderID)
		if err != nil {
			return badRequest(c, "invalid holder_id")
		}
		err = h.walletService.Authenticate(c.Context(), holderID, req.Passphrase)
	}
	if err != nil {
		return respondError(c, h.log, err)
	}

	return h.issue(c, holderID, rbac.RoleHolder, newDID)
}

// OperatorAuth exchanges the operator API key for a token.
// POST /auth/operator
func (h *AuthHandler) OperatorAuth(c *fiber.Ctx) error {
	var req dto.OperatorAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !auth.CheckAPIKey(h.cfg.OperatorAPIKey, req.APIKey) {
		h.log.Warn("operator auth rejected", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid api key"})
	}
	return h.issue(c, auth.OperatorID, rbac.RoleOperator, "")
}

func (h *AuthHandler) issue(c *fiber.Ctx, holderID uuid.UUID, role, newDID string) error {
	token, err := auth.GenerateJWT(h.cfg.JWTSecret, holderID, role, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(dto.AuthResponse{
		Token:    token,
		HolderID: holderID.String(),
		Role:     role,
		DID:      newDID,
	})
}
