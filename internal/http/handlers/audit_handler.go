package handlers

import (
	"context"

	"github.com/digitalme/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuditReader interface {
	GetBySubject(ctx context.Context, subject string, limit, offset int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	audit AuditReader
	log   *zap.Logger
}

func NewAuditHandler(audit AuditReader, log *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

// GetBySubject lists the history of a claim id, schema name or DID.
// GET /audit/:subject?limit=&offset=
func (h *AuditHandler) GetBySubject(c *fiber.Ctx) error {
	entries, err := h.audit.GetBySubject(c.Context(), c.Params("subject"), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}
