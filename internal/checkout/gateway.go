package checkout

import (
	"context"
	"fmt"

	"github.com/replenishlabs/replenish-backend/pkg/square"
)

// GatewayCharge describes a synchronous capture request.
type GatewayCharge struct {
	AmountCents int
	Currency    string
	SourceToken string
	ReferenceID string
}

// GatewayResult is the gateway's answer to a successful capture.
type GatewayResult struct {
	CaptureID string
}

// PaymentGateway captures payments against vaulted sources.
type PaymentGateway interface {
	Capture(ctx context.Context, charge GatewayCharge) (*GatewayResult, error)
}

// SquareGateway adapts the Square client to the checkout gateway surface.
type SquareGateway struct {
	client *square.Client
}

// NewSquareGateway wraps a configured Square client.
func NewSquareGateway(client *square.Client) (*SquareGateway, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &SquareGateway{client: client}, nil
}

func (g *SquareGateway) Capture(ctx context.Context, charge GatewayCharge) (*GatewayResult, error) {
	payment, err := g.client.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: int64(charge.AmountCents),
		Currency:    charge.Currency,
		SourceID:    charge.SourceToken,
		ReferenceID: charge.ReferenceID,
	})
	if err != nil {
		return nil, err
	}

	captureID := ""
	if id := payment.GetID(); id != nil {
		captureID = *id
	}
	return &GatewayResult{CaptureID: captureID}, nil
}
