package shopserver

import (
	"errors"

	mediaapp "github.com/Apurer/go-gin-shop-api/internal/domains/media/application"
	ordersapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-shop-api/internal/shared/errors"
)

const (
	msgInvalidTotal   = "Invalid total amount"
	msgOrderNotFound  = "Order not found!"
	msgOrdersNotFound = "No orders found!"
	msgLookupFailed   = "Some error occurred!"
)

// orderErrorMapper translates order use case failures. notFound is the endpoint's 404 message.
func orderErrorMapper(notFound string) apierrors.ErrorMapper {
	return func(err error) (apierrors.Problem, bool) {
		var shortfall *orderports.InsufficientStockError
		switch {
		case errors.Is(err, orderdomain.ErrInvalidAmount):
			return apierrors.ErrBadRequest.WithMessage(msgInvalidTotal), true
		case errors.Is(err, ordersapp.ErrInvalidInput):
			return apierrors.ErrBadRequest.WithMessage(domainMessage(err)), true
		case errors.As(err, &shortfall):
			return apierrors.ErrBadRequest.WithMessage(shortfall.Error()), true
		case errors.Is(err, orderports.ErrInsufficientStock):
			return apierrors.ErrBadRequest.WithMessage("Not enough stock"), true
		case errors.Is(err, orderports.ErrNotFound):
			return apierrors.ErrNotFound.WithMessage(notFound), true
		case errors.Is(err, orderports.ErrIdempotencyConflict):
			return apierrors.ErrConflict.WithMessage("Idempotency-Key was already used with a different request"), true
		case errors.Is(err, orderports.ErrIdempotencyInFlight):
			return apierrors.ErrConflict.WithMessage("A request with this Idempotency-Key is still in progress"), true
		case errors.Is(err, ordersapp.ErrPlacementTimeout):
			return apierrors.ErrUnavailable.WithCause(err), true
		}
		return apierrors.Problem{}, false
	}
}

func mediaErrorMapper(err error) (apierrors.Problem, bool) {
	switch {
	case errors.Is(err, mediaapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithMessage(domainMessage(err)), true
	case errors.Is(err, mediaapp.ErrHostFailure):
		return apierrors.ErrBadGateway.WithMessage("Image upload failed").WithCause(err), true
	}
	return apierrors.Problem{}, false
}

// domainMessage returns the innermost message of a "%w: %w" chain.
func domainMessage(err error) string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) > 0 {
			return domainMessage(errs[len(errs)-1])
		}
	}
	return err.Error()
}
