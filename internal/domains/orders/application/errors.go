package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrStorageFailure wraps any unexpected collaborator error.
	ErrStorageFailure = errors.New("order storage failure")
	// ErrPlacementTimeout signals the placement deadline passed; the request may be retried.
	ErrPlacementTimeout = errors.New("order placement timed out")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrStorageFailure),
		errors.Is(err, ErrPlacementTimeout):
		return err
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrMissingUser),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, ports.ErrInsufficientStock),
		errors.Is(err, ports.ErrIdempotencyConflict),
		errors.Is(err, ports.ErrIdempotencyInFlight):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrPlacementTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
}
