package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TransferProvider executes a peer-to-peer payout (mobile money). The real
// settlement integration is not wired yet; SimulatedTransferProvider stands
// in and the interface is the extension point for it.
type TransferProvider interface {
	Execute(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

type TransferRequest struct {
	Amount    float64
	Currency  string
	Method    string
	Provider  string
	Recipient string // payout msisdn or account
	Reference string
}

type TransferResult struct {
	Reference string
	Status    string
}

// NewTransferReference generates a provider-style reference for a transfer.
func NewTransferReference(method string) string {
	prefix := "TRF"
	if method == "mobile_money" {
		prefix = "MM"
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// SimulatedTransferProvider completes every transfer immediately.
type SimulatedTransferProvider struct{}

func (SimulatedTransferProvider) Execute(_ context.Context, req TransferRequest) (*TransferResult, error) {
	ref := req.Reference
	if ref == "" {
		ref = NewTransferReference(req.Method)
	}
	return &TransferResult{Reference: ref, Status: "completed"}, nil
}
