package provider

import (
	"context"
	"math/rand"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

// Latency and failure rate of the simulated providers.
const (
	EmailLatency     = 500 * time.Millisecond
	EmailFailureRate = 0.10
	SMSLatency       = 300 * time.Millisecond
	SMSFailureRate   = 0.15
	InAppLatency     = 100 * time.Millisecond
	InAppFailureRate = 0.05
)

// DefaultPhoneNumber is the SMS destination used when a notification carries
// no phoneNumber metadata.
const DefaultPhoneNumber = "+15551234567"

// Simulated is a provider that waits for a fixed latency and then fails at
// random with a fixed probability. It stands in for real gateways.
type Simulated struct {
	channel     model.Channel
	latency     time.Duration
	failureRate float64
	from        string
	recipient   func(model.Notification) string
	roll        func() float64
}

// SimulatedOption configures a Simulated provider.
type SimulatedOption func(*Simulated)

// WithLatency overrides the simulated latency.
func WithLatency(d time.Duration) SimulatedOption {
	return func(s *Simulated) { s.latency = d }
}

// WithRoll overrides the random source. A send fails when roll() < failure rate.
func WithRoll(roll func() float64) SimulatedOption {
	return func(s *Simulated) { s.roll = roll }
}

// NewSimulated creates a simulated provider for channel.
func NewSimulated(channel model.Channel, latency time.Duration, failureRate float64, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		channel:     channel,
		latency:     latency,
		failureRate: failureRate,
		recipient:   func(n model.Notification) string { return n.UserID },
		roll:        rand.Float64,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewSimulatedEmail creates the simulated email provider sending from from.
func NewSimulatedEmail(from string, opts ...SimulatedOption) *Simulated {
	s := NewSimulated(model.ChannelEmail, EmailLatency, EmailFailureRate, opts...)
	s.from = from

	return s
}

// NewSimulatedSMS creates the simulated SMS provider sending from from.
// The destination is the phoneNumber metadata or DefaultPhoneNumber.
func NewSimulatedSMS(from string, opts ...SimulatedOption) *Simulated {
	s := NewSimulated(model.ChannelSMS, SMSLatency, SMSFailureRate, opts...)
	s.from = from
	s.recipient = PhoneNumber

	return s
}

// NewSimulatedInApp creates the simulated in-app provider.
func NewSimulatedInApp(opts ...SimulatedOption) *Simulated {
	return NewSimulated(model.ChannelInApp, InAppLatency, InAppFailureRate, opts...)
}

// Send waits for the configured latency and reports a random outcome.
func (s *Simulated) Send(ctx context.Context, n model.Notification) bool {
	zlog.Logger.Info().
		Str("channel", string(s.channel)).
		Str("id", n.ID.String()).
		Str("user_id", n.UserID).
		Str("from", s.from).
		Str("to", s.recipient(n)).
		Str("title", n.Title).
		Msg("sending notification")

	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		zlog.Logger.Warn().Err(ctx.Err()).Str("id", n.ID.String()).Msg("send interrupted")
		return false
	case <-timer.C:
	}

	if s.roll() < s.failureRate {
		zlog.Logger.Warn().Str("channel", string(s.channel)).Str("id", n.ID.String()).Msg("simulated delivery failure")
		return false
	}

	return true
}

// PhoneNumber returns the phoneNumber metadata of n, or DefaultPhoneNumber.
func PhoneNumber(n model.Notification) string {
	if phone, ok := n.MetadataString("phoneNumber"); ok {
		return phone
	}

	return DefaultPhoneNumber
}
