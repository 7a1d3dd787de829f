package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/rl1809/marketplace/internal/port"
)

const otpDigits = 6

var (
	ErrDeliveryNotFound = errors.New("line item not found, already completed or code invalid")

	otpUpperBound = big.NewInt(1_000_000)
)

// CodeGenerator returns one numeric delivery code.
type CodeGenerator func() (string, error)

// GenerateOTP draws uniformly from 000000-999999.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

type OTPService struct {
	orders   port.OrderRepository
	generate CodeGenerator
}

func NewOTPService(orders port.OrderRepository, generate CodeGenerator) *OTPService {
	if generate == nil {
		generate = GenerateOTP
	}
	return &OTPService{orders: orders, generate: generate}
}

// Issue returns n codes, distinct from each other.
func (s *OTPService) Issue(n int) ([]string, error) {
	codes := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(codes) < n {
		code, err := s.generate()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// Verify completes the pending line matching all three ids when code matches.
// Every kind of mismatch yields ErrDeliveryNotFound.
func (s *OTPService) Verify(ctx context.Context, orderID, itemID, sellerID, code string) error {
	if !validCode(code) {
		return ErrDeliveryNotFound
	}

	ok, err := s.orders.CompleteLineItem(ctx, orderID, itemID, sellerID, code)
	if err != nil {
		return fmt.Errorf("complete line item: %w", err)
	}
	if !ok {
		return ErrDeliveryNotFound
	}

	return nil
}

func validCode(code string) bool {
	if len(code) != otpDigits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
