package service

import (
	"context"
	"fmt"

	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService authorizes payments. No provider is integrated yet, so
// every positive amount is approved.
type PaymentService struct {
	logger *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService() *PaymentService {
	return &PaymentService{
		logger: util.ComponentLogger("payment"),
	}
}

// Authorize approves amount for orderID and returns the provider transaction id
func (ps *PaymentService) Authorize(ctx context.Context, orderID string, amount int64) (string, error) {
	_, span := util.StartSpan(ctx, "PaymentService.Authorize", "")
	defer span.End()

	if amount <= 0 {
		return "", fmt.Errorf("invalid payment amount %d for order %s", amount, orderID)
	}

	txID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
	util.PaymentAuthorizationsTotal.Inc()

	ps.logger.Info("Payment authorized",
		zap.String("order_id", orderID),
		zap.Int64("amount", amount),
		zap.String("tx_id", txID))

	return txID, nil
}
