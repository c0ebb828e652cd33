package adaptor

import (
	"errors"
	"net/http"

	"dustclean/internal/usecase"
	"dustclean/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps service sentinel errors to HTTP statuses. Anything
// unmatched is an internal error and gets logged at error level with the
// full chain; client-caused failures only warn.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidServiceRef),
		errors.Is(err, usecase.ErrInvalidQuantity),
		errors.Is(err, usecase.ErrSignatureVerification):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidCredentials):
		log.Warn(operation+" failed - bad credentials", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrStateConflict),
		errors.Is(err, usecase.ErrPaymentAlreadyDone),
		errors.Is(err, usecase.ErrNotRefundable),
		errors.Is(err, usecase.ErrRefundExceedsPayment),
		errors.Is(err, usecase.ErrEmailTaken):
		log.Warn(operation+" conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrGatewayUnavailable):
		log.Error(operation+" failed - gateway unavailable", zap.Error(err))
		utils.ResponseBadGateway(w, err.Error())

	default:
		log.Error(operation+" failed", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
