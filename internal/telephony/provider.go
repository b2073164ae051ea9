package telephony

import (
	"context"
	"errors"
)

var ErrInvalidDial = errors.New("telephony: destination number is required")

// Provider places outbound calls. Webhook handling does not go through
// the provider; the provider only starts calls that later call back into
// the webhooks.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error
	Dial(ctx context.Context, req DialRequest) (DialResult, error)
}

// DialRequest is one outbound call to a lead.
type DialRequest struct {
	To     string `json:"to"`
	LeadID int64  `json:"lead_id,omitempty"`
}

// DialResult is what the provider reports right after accepting the call.
type DialResult struct {
	CallSID string `json:"call_sid"`
	Status  string `json:"status"`
	To      string `json:"to"`
	LeadID  int64  `json:"lead_id,omitempty"`
}
