package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/marketplace/internal/core/service"
)

var ErrInvalidRequest = errors.New("invalid request")

type errKind int

const (
	kindInternal errKind = iota
	kindInvalid
	kindUnauthenticated
	kindNotFound
	kindConflict
	kindExists
)

func classify(err error) errKind {
	switch {
	case errors.Is(err, service.ErrMissingCaller):
		return kindUnauthenticated
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidCheckout),
		errors.Is(err, service.ErrPriceMismatch),
		errors.Is(err, service.ErrOwnItem),
		errors.Is(err, service.ErrInvalidCartItem):
		return kindInvalid
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrDeliveryNotFound):
		return kindNotFound
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrAlreadyInCart):
		return kindExists
	case errors.Is(err, service.ErrItemsUnavailable),
		errors.Is(err, service.ErrCartFull):
		return kindConflict
	default:
		return kindInternal
	}
}

func (k errKind) httpStatus() int {
	switch k {
	case kindInvalid:
		return http.StatusBadRequest
	case kindUnauthenticated:
		return http.StatusUnauthorized
	case kindNotFound:
		return http.StatusNotFound
	case kindConflict, kindExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k errKind) grpcCode() codes.Code {
	switch k {
	case kindInvalid:
		return codes.InvalidArgument
	case kindUnauthenticated:
		return codes.Unauthenticated
	case kindNotFound:
		return codes.NotFound
	case kindExists:
		return codes.AlreadyExists
	case kindConflict:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func (k errKind) String() string {
	switch k {
	case kindInvalid:
		return "invalid"
	case kindUnauthenticated:
		return "unauthenticated"
	case kindNotFound:
		return "not_found"
	case kindConflict:
		return "conflict"
	case kindExists:
		return "exists"
	default:
		return "internal"
	}
}

// publicMessage hides internal failures from callers.
func publicMessage(err error, k errKind) string {
	if k == kindInternal {
		return "internal error"
	}
	return err.Error()
}
