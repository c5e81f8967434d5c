package handlers

import (
	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/middleware"
	"github.com/digitalme/backend/internal/models"
	"github.com/digitalme/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PassphraseHeader carries the wallet passphrase. It is never stored.
const PassphraseHeader = "X-Wallet-Passphrase"

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

// RequirePassphrase rejects wallet calls without the passphrase header.
func RequirePassphrase() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(PassphraseHeader) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing " + PassphraseHeader + " header"})
		}
		return c.Next()
	}
}

// ExportWallet returns the encrypted wallet file.
// GET /wallet
func (h *WalletHandler) ExportWallet(c *fiber.Ctx) error {
	rec, err := h.walletService.Export(c.Context(), middleware.GetHolderID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(rec)
}

// ImportWallet replaces the wallet with an exported file.
// PUT /wallet
func (h *WalletHandler) ImportWallet(c *fiber.Ctx) error {
	var rec models.WalletRecord
	if err := c.BodyParser(&rec); err != nil {
		return badRequest(c, "invalid wallet file")
	}

	out, err := h.walletService.Import(c.Context(), middleware.GetHolderID(c), c.Get(PassphraseHeader), rec)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: out})
}

// CreateDID
// POST /wallet/dids
func (h *WalletHandler) CreateDID(c *fiber.Ctx) error {
	d, err := h.walletService.CreateDID(c.Context(), middleware.GetHolderID(c), c.Get(PassphraseHeader))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DIDResponse{DID: d})
}

// ListDIDs
// GET /wallet/dids
func (h *WalletHandler) ListDIDs(c *fiber.Ctx) error {
	dids, err := h.walletService.ListDIDs(c.Context(), middleware.GetHolderID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"dids": dids})
}

// AddClaim stores a claim handed over by an issuer.
// POST /wallet/claims
func (h *WalletHandler) AddClaim(c *fiber.Ctx) error {
	var claim models.Claim
	if err := c.BodyParser(&claim); err != nil {
		return badRequest(c, "invalid claim")
	}

	if err := h.walletService.AddClaim(c.Context(), middleware.GetHolderID(c), c.Get(PassphraseHeader), &claim); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true})
}

// ListClaims
// GET /wallet/claims?did=
func (h *WalletHandler) ListClaims(c *fiber.Ctx) error {
	d := c.Query("did")
	if d == "" {
		return badRequest(c, "did query parameter is required")
	}

	claims, err := h.walletService.ListClaims(c.Context(), middleware.GetHolderID(c), c.Get(PassphraseHeader), d)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"claims": claims})
}

// GetClaim
// GET /wallet/claims/:id
func (h *WalletHandler) GetClaim(c *fiber.Ctx) error {
	claim, err := h.walletService.GetClaim(c.Context(), middleware.GetHolderID(c), c.Get(PassphraseHeader), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(claim)
}
