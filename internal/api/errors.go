package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/auth"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/callback"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/token"
)

var errBadRequest = errors.New("bad request")

var statusTable = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		errBadRequest,
		auth.ErrActionMismatch,
		auth.ErrMalformed,
		callback.ErrInvalidURL,
		coordinator.ErrInvalidConsumer,
		coordinator.ErrTooManyConsumers,
		coordinator.ErrInvalidAmount,
		coordinator.ErrRequestBlockConfsTooLow,
		coordinator.ErrRequestBlockConfsTooHigh,
		coordinator.ErrNumWordsTooBig,
		coordinator.ErrUnregisteredKeyHash,
		coordinator.ErrInvalidProofLength,
		coordinator.ErrInvalidProofEncoding,
		coordinator.ErrIncorrectCommitment,
		coordinator.ErrInvalidProof,
		coordinator.ErrInsufficientGasForConsumer,
		coordinator.ErrOutOfGas,
		coordinator.ErrPaymentTooLarge,
		token.ErrInvalidAmount,
	}},
	{http.StatusPaymentRequired, []error{
		coordinator.ErrInsufficientBalance,
		token.ErrInsufficientFunds,
	}},
	{http.StatusForbidden, []error{
		coordinator.ErrOnlyAdmin,
		coordinator.ErrMustBeSubOwner,
		coordinator.ErrMustBeRequestedOwner,
	}},
	{http.StatusNotFound, []error{
		coordinator.ErrInvalidSubscription,
		coordinator.ErrNoCorrespondingRequest,
		coordinator.ErrNoSuchProvingKey,
	}},
	{http.StatusConflict, []error{
		coordinator.ErrKeyAlreadyRegistered,
	}},
	{http.StatusTooEarly, []error{
		coordinator.ErrBlockHashNotInStore,
	}},
	{http.StatusBadGateway, []error{
		coordinator.ErrTokenTransferFailed,
		coordinator.ErrInvalidFeedResponse,
	}},
	{http.StatusServiceUnavailable, []error{
		coordinator.ErrBlockSourceNotSynced,
	}},
}

func statusFor(err error) int {
	for _, row := range statusTable {
		for _, e := range row.errs {
			if errors.Is(err, e) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Unmapped errors are logged and
// reported as a generic internal error.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("api: unhandled error", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
