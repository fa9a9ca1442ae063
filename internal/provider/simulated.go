package provider

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

// Outcome weights out of 100.
const (
	simulatedDeliveredWeight = 96
	simulatedBouncedWeight   = 3
)

var _ Sender = (*SimulatedSender)(nil)

// SimulatedSender stands in for real delivery: 96% delivered, 3% bounced and
// 1% spam complaint.
type SimulatedSender struct {
	delay    time.Duration
	randIntn func(n int) int
}

func NewSimulatedSender(delay time.Duration) *SimulatedSender {
	return &SimulatedSender{
		delay:    max(delay, 0),
		randIntn: rand.IntN,
	}
}

func (s *SimulatedSender) Send(ctx context.Context, msg Message) (domain.Outcome, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	roll := s.randIntn(100)
	switch {
	case roll < simulatedDeliveredWeight:
		return domain.OutcomeDelivered, nil
	case roll < simulatedDeliveredWeight+simulatedBouncedWeight:
		return domain.OutcomeBounced, nil
	default:
		return domain.OutcomeSpamComplaint, nil
	}
}
