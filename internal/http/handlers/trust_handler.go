package handlers

import (
	"context"

	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/middleware"
	"github.com/digitalme/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TrustHandler struct {
	trustService *services.TrustService
	log          *zap.Logger
}

func NewTrustHandler(trustService *services.TrustService, log *zap.Logger) *TrustHandler {
	return &TrustHandler{trustService: trustService, log: log}
}

// GetInfo
// GET /trust
func (h *TrustHandler) GetInfo(c *fiber.Ctx) error {
	info, err := h.trustService.Info(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(info)
}

// IsTrusted
// GET /trust/issuers?issuer_did=&schema=
func (h *TrustHandler) IsTrusted(c *fiber.Ctx) error {
	issuerDID, schema := c.Query("issuer_did"), c.Query("schema")
	if issuerDID == "" || schema == "" {
		return badRequest(c, "issuer_did and schema are required")
	}

	trusted, err := h.trustService.IsTrusted(c.Context(), issuerDID, schema)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.TrustResponse{IssuerDID: issuerDID, Schema: schema, Trusted: trusted})
}

// RegisterIssuer
// POST /trust/issuers?dry_run=true
func (h *TrustHandler) RegisterIssuer(c *fiber.Ctx) error {
	return h.write(c, h.trustService.RegisterIssuer)
}

// DeactivateIssuer
// POST /trust/issuers/deactivate?dry_run=true
func (h *TrustHandler) DeactivateIssuer(c *fiber.Ctx) error {
	return h.write(c, h.trustService.DeactivateIssuer)
}

type trustWrite = func(ctx context.Context, actorID uuid.UUID, issuerDID, schemaName string, dryRun bool) (string, error)

func (h *TrustHandler) write(c *fiber.Ctx, op trustWrite) error {
	var req dto.IssuerSchemaRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IssuerDID == "" || req.Schema == "" {
		return badRequest(c, "issuer_did and schema are required")
	}

	dryRun := c.QueryBool("dry_run")
	tx, err := op(c.Context(), middleware.GetHolderID(c), req.IssuerDID, req.Schema, dryRun)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.TxResponse{TxHash: tx, DryRun: dryRun})
}
