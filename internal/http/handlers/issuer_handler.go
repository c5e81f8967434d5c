package handlers

import (
	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/middleware"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type IssuerHandler struct {
	issuerService *services.IssuerService
	log           *zap.Logger
}

func NewIssuerHandler(issuerService *services.IssuerService, log *zap.Logger) *IssuerHandler {
	return &IssuerHandler{issuerService: issuerService, log: log}
}

// GetInfo
// GET /issuer
func (h *IssuerHandler) GetInfo(c *fiber.Ctx) error {
	info, err := h.issuerService.Info(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(info)
}

// GetSchema
// GET /issuer/schemas/:name
func (h *IssuerHandler) GetSchema(c *fiber.Ctx) error {
	schema, err := h.issuerService.SchemaDetails(c.Context(), c.Params("name"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(schema)
}

// RegisterSchema
// POST /issuer/schemas?dry_run=true
func (h *IssuerHandler) RegisterSchema(c *fiber.Ctx) error {
	var req dto.RegisterSchemaRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	dryRun := c.QueryBool("dry_run")
	schema, err := h.issuerService.RegisterSchema(c.Context(), middleware.GetHolderID(c), models.Schema{
		Name:       req.Name,
		Attributes: req.Attributes,
		Revokable:  req.Revokable,
	}, dryRun)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(createdUnlessDryRun(dryRun)).JSON(schema)
}

// IssueClaim signs a claim for owner_did and injects it on chain.
// POST /issuer/claims?dry_run=true
func (h *IssuerHandler) IssueClaim(c *fiber.Ctx) error {
	var req dto.IssueClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.OwnerDID == "" || req.Schema == "" {
		return badRequest(c, "owner_did and schema are required")
	}

	dryRun := c.QueryBool("dry_run")
	claim, err := h.issuerService.IssueClaim(c.Context(), middleware.GetHolderID(c), services.IssueClaimRequest{
		OwnerDID:   req.OwnerDID,
		Schema:     req.Schema,
		Attributes: req.Attributes,
		ValidFrom:  req.ValidFrom,
		ValidTo:    req.ValidTo,
	}, dryRun)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(createdUnlessDryRun(dryRun)).JSON(claim)
}

// RevokeClaim
// DELETE /issuer/claims/:id?dry_run=true
func (h *IssuerHandler) RevokeClaim(c *fiber.Ctx) error {
	dryRun := c.QueryBool("dry_run")
	tx, err := h.issuerService.RevokeClaim(c.Context(), middleware.GetHolderID(c), c.Params("id"), dryRun)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.TxResponse{TxHash: tx, DryRun: dryRun})
}

func createdUnlessDryRun(dryRun bool) int {
	if dryRun {
		return fiber.StatusOK
	}
	return fiber.StatusCreated
}
