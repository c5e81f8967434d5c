package handlers

import (
	"errors"

	"github.com/digitalme/backend/internal/chain"
	"github.com/digitalme/backend/internal/contracts"
	"github.com/digitalme/backend/internal/did"
	"github.com/digitalme/backend/internal/http/dto"
	"github.com/digitalme/backend/internal/identity"
	"github.com/digitalme/backend/internal/middleware"
	"github.com/digitalme/backend/internal/repositories"
	"github.com/digitalme/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var statusByError = []struct {
	err    error
	status int
}{
	{identity.ErrInvalidClaim, fiber.StatusBadRequest},
	{identity.ErrDuplicateClaim, fiber.StatusBadRequest},
	{identity.ErrMissingNetwork, fiber.StatusBadRequest},
	{did.ErrInvalidDID, fiber.StatusBadRequest},
	{services.ErrSchemaMismatch, fiber.StatusBadRequest},
	{services.ErrEmptyPassphrase, fiber.StatusBadRequest},
	{identity.ErrDecryption, fiber.StatusUnauthorized},
	{identity.ErrUnknownOwner, fiber.StatusNotFound},
	{services.ErrWalletNotFound, fiber.StatusNotFound},
	{services.ErrClaimNotFound, fiber.StatusNotFound},
	{identity.ErrLocked, fiber.StatusConflict},
	{identity.ErrDuplicateDID, fiber.StatusConflict},
	{repositories.ErrDIDTaken, fiber.StatusConflict},
	{services.ErrWalletExists, fiber.StatusConflict},
	{services.ErrBusy, fiber.StatusConflict},
	{services.ErrKeyNotConfigured, fiber.StatusServiceUnavailable},
	{contracts.ErrTransactionSigningFailed, fiber.StatusBadGateway},
	{chain.ErrInsufficientFunds, fiber.StatusBadGateway},
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}

	var ce *contracts.ContractError
	var tf *contracts.TransactionFailedError
	var re *chain.RPCError
	if errors.As(err, &ce) || errors.As(err, &tf) || errors.As(err, &re) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := statusFor(err)
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error("request failed", zap.String("request_id", reqID), zap.String("path", c.Path()), zap.Error(err))
		msg = "internal server error"
	} else {
		log.Debug("request rejected", zap.String("request_id", reqID), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: reqID})
}

func badRequest(c *fiber.Ctx, msg string) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: reqID})
}
