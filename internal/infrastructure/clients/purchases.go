package clients

import (
	"context"
	"net/http"

	"frontdesk/internal/domain/checkin"
)

func (c *BackendClient) LookupPurchaseByCode(ctx context.Context, code string) (*checkin.PurchaseRecord, error) {
	return c.lookupPurchase(ctx, "lookup purchase by code", c.endpoint("tickets", "verify", code))
}

func (c *BackendClient) LookupPurchaseByReference(ctx context.Context, ref checkin.TransactionReference) (*checkin.PurchaseRecord, error) {
	return c.lookupPurchase(ctx, "lookup purchase by reference", c.endpoint("tickets", "reference", ref.String()))
}

func (c *BackendClient) lookupPurchase(ctx context.Context, op, rawURL string) (*checkin.PurchaseRecord, error) {
	env, err := c.do(ctx, op, http.MethodGet, rawURL, false)
	if err != nil {
		return nil, err
	}

	var dto purchaseDTO
	if err := decodeData(op, env, &dto); err != nil {
		return nil, err
	}

	record := dto.toDomain()
	return &record, nil
}

type CheckInResult struct {
	Message string
}

func (c *BackendClient) CheckInPurchase(ctx context.Context, purchaseID string) (*CheckInResult, error) {
	env, err := c.do(ctx, "check in purchase", http.MethodPost, c.endpoint("tickets", purchaseID, "check-in"), true)
	if err != nil {
		return nil, err
	}

	return &CheckInResult{Message: env.Message}, nil
}
