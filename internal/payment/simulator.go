package payment

import (
	"context"
	"math/rand"
	"time"

	"ms-raffle/internal/utils"
)

// DeclinedError reports a payment that was refused by the (simulated)
// gateway. It is surfaced distinctly from transport failures so the
// caller knows no charge happened.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return "payment declined: " + e.Reason
}

// Receipt is the gateway's record of an approved charge.
type Receipt struct {
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"` // cents
	Currency  string    `json:"currency"`
	ChargedAt time.Time `json:"charged_at"`
}

// Simulator stands in for an external payment gateway: it resolves
// after a fixed delay either as an approved Receipt or a
// DeclinedError. It is not transactional with the ticket grant that
// follows it; an approved charge whose grant later fails stays
// approved, and that gap is the caller's to surface.
type Simulator struct {
	Delay time.Duration

	// Decide picks the outcome once the delay has elapsed; nil means
	// approve. A non-nil return is reported as a decline.
	Decide func() error

	// Amount charged per entry, in cents. Defaults to $1.
	Amount int64
}

func NewSimulator(delay time.Duration) *Simulator {
	return &Simulator{Delay: delay, Amount: 100}
}

// NewFlakySimulator declines roughly declinePercent of charges, for
// demos and fault-path testing.
func NewFlakySimulator(delay time.Duration, declinePercent int) *Simulator {
	return &Simulator{
		Delay:  delay,
		Amount: 100,
		Decide: func() error {
			if rand.Intn(100) < declinePercent {
				return &DeclinedError{Reason: "card refused by issuer (simulated)"}
			}
			return nil
		},
	}
}

// Charge runs one simulated payment. The delay is a cancellable
// scheduled task: cancelling ctx stops the timer and returns without an
// outcome, so a torn-down caller never receives a late approval. One
// invocation yields at most one approval.
func (s *Simulator) Charge(ctx context.Context) (*Receipt, error) {
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if s.Decide != nil {
		if err := s.Decide(); err != nil {
			if declined, ok := err.(*DeclinedError); ok {
				return nil, declined
			}
			// Any downstream failure while finalizing reads as a decline.
			return nil, &DeclinedError{Reason: err.Error()}
		}
	}

	amount := s.Amount
	if amount == 0 {
		amount = 100
	}
	return &Receipt{
		Reference: utils.GenerateTransactionID(),
		Amount:    amount,
		Currency:  "usd",
		ChargedAt: time.Now(),
	}, nil
}
