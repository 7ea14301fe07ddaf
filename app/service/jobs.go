package service

import (
	"context"
	"time"

	"github.com/goattech/ms-go-checkout/app/entity"
)

const defaultJobBatchSize = int32(100)

// RunExpiryBatch flips every overdue gift to expired in one sweep. Lazy
// expiry on read already covers gifts someone looks at; this catches the
// rest.
func (s *GiftService) RunExpiryBatch(ctx context.Context) (int64, error) {
	return s.giftRepo.ExpireDue(ctx, time.Now().UTC())
}

// RunReconcileBatch re-polls the gateway for gifts stuck in
// pending_payment, picking up payments whose webhook never arrived.
// Polls that settle are audited like a webhook delivery; polls that
// come back pending are not, since the sweep repeats every interval.
func (s *GiftService) RunReconcileBatch(ctx context.Context) error {
	now := time.Now().UTC()
	staleAfter := s.paymentsCfg.ReconcileStaleAfter
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	batchSize := s.paymentsCfg.JobBatchSize
	if batchSize <= 0 {
		batchSize = defaultJobBatchSize
	}

	items, err := s.giftRepo.ListStalePendingPayment(ctx, now.Add(-staleAfter), batchSize)
	if err != nil {
		return err
	}

	g, err := s.gateways.Get(giftGatewayName)
	if err != nil {
		return ErrGatewayUnsupported
	}

	var firstErr error
	for _, gift := range items {
		if gift == nil {
			continue
		}

		result, err := g.GetStatus(ctx, gift.PaymentOrderCode)
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if result.Status != entity.TransactionStatusSuccess {
			continue
		}

		if err := s.auditSettlement(ctx, gift.PaymentOrderCode, result); err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if err := s.settlePaid(ctx, gift, result.Amount, result.TransactionRef); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
