package handlers

import (
	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type VerifyHandler struct {
	verificationService *services.VerificationService
	log                 *zap.Logger
}

func NewVerifyHandler(verificationService *services.VerificationService, log *zap.Logger) *VerifyHandler {
	return &VerifyHandler{verificationService: verificationService, log: log}
}

// Verify runs every check including the on-chain ones.
// POST /verify
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	report, err := h.verificationService.Verify(c.Context(), &req.Claim, req.RotScriptHash)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(report)
}

// VerifyOffline checks the signature only.
// POST /verify/offline
func (h *VerifyHandler) VerifyOffline(c *fiber.Ctx) error {
	var req dto.VerifyOfflineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IssuerPublicKey == "" {
		return badRequest(c, "issuer_public_key is required")
	}

	valid, err := h.verificationService.VerifyOffline(&req.Claim, req.IssuerPublicKey)
	if err != nil {
		return respondError(c, h.log, err)
	}
	hash, err := h.verificationService.ClaimHash(&req.Claim)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OfflineVerifyResponse{Valid: valid, Hash: hash})
}
